package mail

import (
	"bytes"
	"html/template"
	"time"

	"github.com/example/storefront/pkg/models"
)

var (
	resetTemplate = template.Must(template.New("reset").Parse(`<p>Hi {{.Name}},</p>
<p>We received a request to reset your password. Use the link below within {{.Minutes}} minutes:</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>If you did not ask for this you can ignore this email.</p>`))

	orderTemplate = template.Must(template.New("order").Parse(`<p>Hi {{.Name}},</p>
<p>{{.Headline}}</p>
<p>Order <strong>{{.OrderID}}</strong> is now <strong>{{.Status}}</strong>.</p>
<table>
{{range .Items}}<tr><td>{{.Name}}</td><td>x{{.Quantity}}</td><td>{{printf "%.2f" .Price}}</td></tr>
{{end}}</table>
<p>Total: {{printf "%.2f" .Total}}</p>`))
)

func PasswordReset(to, name, link string, ttl time.Duration) (Message, error) {
	var buf bytes.Buffer
	err := resetTemplate.Execute(&buf, map[string]interface{}{
		"Name":    name,
		"Link":    link,
		"Minutes": int(ttl.Minutes()),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Reset your password", HTML: buf.String()}, nil
}

var orderHeadlines = map[models.OrderStatus]string{
	models.OrderStatusPending:   "Thanks for your order, we have received it.",
	models.OrderStatusConfirmed: "Your payment was received and your order is confirmed.",
	models.OrderStatusShipped:   "Good news, your order is on its way.",
	models.OrderStatusDelivered: "Your order has been delivered.",
	models.OrderStatusCancelled: "Your order has been cancelled.",
}

func OrderNotice(to, name string, order models.Order) (Message, error) {
	var buf bytes.Buffer
	err := orderTemplate.Execute(&buf, map[string]interface{}{
		"Name":     name,
		"Headline": orderHeadlines[order.Status],
		"OrderID":  order.ID.Hex(),
		"Status":   order.Status,
		"Items":    order.Items,
		"Total":    order.TotalAmount,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Order " + order.ID.Hex() + ": " + string(order.Status),
		HTML:    buf.String(),
	}, nil
}
