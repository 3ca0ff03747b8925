package notify

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/lexohub/lexohub/internal/bar"
	"github.com/lexohub/lexohub/internal/domain"
)

// reminderMessage is a composed reminder ready for the transport.
type reminderMessage struct {
	Subject string
	Text    string
	HTML    string
}

// reminderData is the view model both template variants render.
type reminderData struct {
	AttorneyName   string
	InvoiceNumber  string
	MatterTitle    string
	Reference      string
	InvoiceDate    string
	DueDate        string
	Outstanding    string
	ReminderNumber int
	Final          bool
	DaysOverdue    int
	DaysUntilDue   int
	LateFeePct     string
	AdvocateName   string
	Chambers       string
	BarName        string
	BankName       string
	BankAccount    string
	BankBranch     string
}

const reminderTextSource = `Dear {{.AttorneyName}},

This is reminder {{.ReminderNumber}} that invoice {{.InvoiceNumber}} on {{.MatterTitle}} (your reference {{.Reference}}), dated {{.InvoiceDate}}, remains unpaid.

Amount outstanding: {{.Outstanding}}
Due date: {{.DueDate}}
{{if gt .DaysOverdue 0}}
The invoice is {{.DaysOverdue}} days past due. Overdue accounts bear interest at {{.LateFeePct}} per month.
{{else if gt .DaysUntilDue 0}}
Payment falls due in {{.DaysUntilDue}} days.
{{end}}{{if .Final}}
Please treat this as a final demand. The account will be marked overdue if payment is not received by the due date.
{{end}}
Please use {{.InvoiceNumber}} as the payment reference.
{{if .BankName}}
Banking details:
  Bank: {{.BankName}}
  Account: {{.BankAccount}}{{if .BankBranch}}
  Branch code: {{.BankBranch}}{{end}}
{{end}}
Kind regards,
{{.AdvocateName}}
{{.Chambers}}
{{.BarName}}
`

const reminderHTMLSource = `<p>Dear {{.AttorneyName}},</p>
<p>This is reminder {{.ReminderNumber}} that invoice <strong>{{.InvoiceNumber}}</strong> on {{.MatterTitle}} (your reference {{.Reference}}), dated {{.InvoiceDate}}, remains unpaid.</p>
<p>Amount outstanding: <strong>{{.Outstanding}}</strong><br>
Due date: {{.DueDate}}</p>
{{if gt .DaysOverdue 0}}<p>The invoice is {{.DaysOverdue}} days past due. Overdue accounts bear interest at {{.LateFeePct}} per month.</p>
{{else if gt .DaysUntilDue 0}}<p>Payment falls due in {{.DaysUntilDue}} days.</p>
{{end}}{{if .Final}}<p><strong>Please treat this as a final demand.</strong> The account will be marked overdue if payment is not received by the due date.</p>
{{end}}<p>Please use {{.InvoiceNumber}} as the payment reference.</p>
{{if .BankName}}<p>Banking details:<br>
Bank: {{.BankName}}<br>
Account: {{.BankAccount}}{{if .BankBranch}}<br>
Branch code: {{.BankBranch}}{{end}}</p>
{{end}}<p>Kind regards,<br>
{{.AdvocateName}}<br>
{{.Chambers}}<br>
{{.BarName}}</p>
`

var (
	reminderText = template.Must(template.New("reminder_text").Parse(reminderTextSource))
	reminderHTML = template.Must(template.New("reminder_html").Parse(reminderHTMLSource))
)

// buildReminder renders the subject and both body variants.
func buildReminder(rem domain.ReminderNotification, rules bar.PaymentRules, today time.Time) reminderMessage {
	inv := rem.Invoice
	data := reminderData{
		AttorneyName:   rem.Matter.AttorneyName,
		InvoiceNumber:  inv.InvoiceNumber,
		MatterTitle:    rem.Matter.Title,
		Reference:      rem.Matter.Reference,
		InvoiceDate:    inv.InvoiceDate.Format("02 January 2006"),
		DueDate:        inv.DueDate.Format("02 January 2006"),
		Outstanding:    fmt.Sprintf("R %.2f", inv.Balance()),
		ReminderNumber: rem.ReminderNumber,
		Final:          rem.Final,
		LateFeePct:     fmt.Sprintf("%.1f%%", rules.LateFeePercentage*100),
		BarName:        inv.Bar.DisplayName(),
	}
	if rem.Matter.AttorneyName == "" {
		data.AttorneyName = "Colleague"
	}
	if days := daysBetween(inv.DueDate, today); days > 0 {
		data.DaysOverdue = days
	} else if days < 0 {
		data.DaysUntilDue = -days
	}
	if rem.Advocate != nil {
		data.AdvocateName = rem.Advocate.FullName
		data.Chambers = rem.Advocate.Chambers
		data.BankName = rem.Advocate.BankName
		data.BankAccount = rem.Advocate.BankAccount
		data.BankBranch = rem.Advocate.BankBranchCode
	}

	subject := fmt.Sprintf("Payment reminder %d: invoice %s", rem.ReminderNumber, inv.InvoiceNumber)
	if rem.Final {
		subject = fmt.Sprintf("Final demand: invoice %s", inv.InvoiceNumber)
	}

	return reminderMessage{
		Subject: subject,
		Text:    render(reminderText, data),
		HTML:    render(reminderHTML, data),
	}
}

func render(t *template.Template, data reminderData) string {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		// Templates are static and parsed at init; execution only fails
		// on a broken writer, which strings.Builder is not.
		return ""
	}
	return b.String()
}

// daysBetween counts whole days from a to b, negative when b precedes a.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
