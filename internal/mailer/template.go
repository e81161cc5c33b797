package mailer

import (
	"bytes"
	"html/template"

	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/util"
)

var notificationTemplate = template.Must(template.New("notification").Parse(`<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2>{{.Title}}</h2>
  <p>{{.Message}}</p>
  {{if .Date}}<p><strong>Data:</strong> {{.Date}}</p>{{end}}
  {{if .Value}}<p><strong>Valor:</strong> {{.Value}}</p>{{end}}
  {{if .Link}}<p><a href="{{.Link}}">Abrir no sistema</a></p>{{end}}
</body>
</html>`))

var priorityLabels = map[model.NotificationPriority]string{
	model.NotificationPriorityLow:    "Baixa",
	model.NotificationPriorityMedium: "Média",
	model.NotificationPriorityHigh:   "Alta",
	model.NotificationPriorityUrgent: "Urgente",
}

// maxSubjectLength keeps subjects on one header line.
const maxSubjectLength = 75

func NotificationSubject(n model.Notification) string {
	subject := n.Title
	if n.Priority == model.NotificationPriorityUrgent || n.Priority == model.NotificationPriorityHigh {
		subject = "[" + priorityLabels[n.Priority] + "] " + n.Title
	}
	return util.TruncateContent(subject, maxSubjectLength)
}

func NotificationBody(n model.Notification, baseURL string) string {
	data := struct {
		Title, Message, Date, Value, Link string
	}{
		Title:   n.Title,
		Message: n.Message,
	}
	if n.Metadata != nil {
		if n.Metadata.Date != nil {
			data.Date = util.FormatDate(*n.Metadata.Date)
		}
		if n.Metadata.Value != nil {
			data.Value = util.FormatBRL(*n.Metadata.Value)
		}
	}
	if n.Link != "" && baseURL != "" {
		data.Link = baseURL + n.Link
	}

	var buf bytes.Buffer
	if err := notificationTemplate.Execute(&buf, data); err != nil {
		return n.Message
	}
	return buf.String()
}
