// Package whatsapp renders the confirmation message and the wa.me deep link
// handed to the transport collaborator after a successful booking.
package whatsapp

import (
	"fmt"
	"strings"
	"time"

	"github.com/lucasferr-dev/zapagenda/internal/model"
)

var weekdayNames = [...]string{
	"domingo", "segunda-feira", "terça-feira", "quarta-feira",
	"quinta-feira", "sexta-feira", "sábado",
}

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// ConfirmationMessage builds the outbound text. Field order and the
// conditional address/notes lines are part of the contract with the business
// receiving the message; do not reorder.
func ConfirmationMessage(appt model.Appointment) string {
	var b strings.Builder
	b.WriteString("Olá! Gostaria de agendar um serviço:\n\n")
	fmt.Fprintf(&b, "*Data:* %s\n", LongDate(appt.Date))
	fmt.Fprintf(&b, "*Horário:* %s\n", appt.Time)
	fmt.Fprintf(&b, "*Nome:* %s\n", appt.Name)
	fmt.Fprintf(&b, "*Telefone:* %s\n", appt.Phone)
	if appt.Address != nil {
		writeAddress(&b, appt.Address)
	}
	fmt.Fprintf(&b, "*Serviço:* %s\n", appt.Service)
	if appt.Notes != "" {
		fmt.Fprintf(&b, "*Observações:* %s\n", appt.Notes)
	}
	b.WriteString("\nAguardo confirmação!")
	return b.String()
}

func writeAddress(b *strings.Builder, addr *model.Address) {
	line := addr.Street + ", " + addr.Number
	if addr.Complement != "" {
		line += " (" + addr.Complement + ")"
	}
	fmt.Fprintf(b, "*Endereço:* %s\n", line)
	fmt.Fprintf(b, "%s – %s/%s\n", addr.Neighborhood, addr.City, addr.State)
	fmt.Fprintf(b, "CEP: %s\n", addr.PostalCode)
}

// LongDate renders a YYYY-MM-DD date in long pt-BR form, e.g.
// "segunda-feira, 2 de março de 2026". Unparseable input is returned as-is.
func LongDate(date string) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s, %d de %s de %d",
		weekdayNames[d.Weekday()], d.Day(), monthNames[d.Month()-1], d.Year())
}
