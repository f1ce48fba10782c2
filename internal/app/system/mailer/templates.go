// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// ApprovalEmailData holds data for the account-approved email.
type ApprovalEmailData struct {
	Name     string
	LoginURL string
}

// BuildApprovalEmail creates the "account approved" email with both HTML
// and text bodies. The recipient is set by the caller.
func BuildApprovalEmail(data ApprovalEmailData) Email {
	return Email{
		Subject:  "Your Disciplo Account Has Been Approved",
		TextBody: buildApprovalText(data),
		HTMLBody: mustExecute(approvalHTMLTemplate, data),
	}
}

func buildApprovalText(data ApprovalEmailData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Hi %s,\n\n", data.Name)
	buf.WriteString("Great news! Your Disciplo account has been approved and you now have full access to the community.\n\n")
	buf.WriteString("You can now:\n")
	buf.WriteString("- Create your first battleplan (30/60/90 day transformation)\n")
	buf.WriteString("- Join accountability groups\n")
	buf.WriteString("- Connect your Telegram for notifications and group access\n\n")
	fmt.Fprintf(&buf, "Login here: %s\n\n", data.LoginURL)
	buf.WriteString("Best regards,\nThe Disciplo Team\n")
	return buf.String()
}

// WelcomeEmailData holds data for the registration-received email.
type WelcomeEmailData struct {
	Name string
}

// BuildWelcomeEmail creates the "account under review" email sent right
// after registration.
func BuildWelcomeEmail(data WelcomeEmailData) Email {
	return Email{
		Subject:  "Welcome to Disciplo - Account Under Review",
		TextBody: buildWelcomeText(data),
		HTMLBody: mustExecute(welcomeHTMLTemplate, data),
	}
}

func buildWelcomeText(data WelcomeEmailData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Hi %s,\n\n", data.Name)
	buf.WriteString("Thank you for joining Disciplo! Your registration has been received and is under review by our team.\n\n")
	buf.WriteString("Review usually takes 1-2 business days; you'll receive an email once approved.\n\n")
	buf.WriteString("Best regards,\nThe Disciplo Team\n")
	return buf.String()
}

func mustExecute(tmpl *template.Template, data interface{}) string {
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

var approvalHTMLTemplate = template.Must(template.New("approval").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;font-family:Arial,sans-serif;color:#333;">
  <div style="max-width:600px;margin:0 auto;padding:20px;">
    <div style="background:#2563eb;color:#fff;padding:30px;text-align:center;border-radius:10px 10px 0 0;">
      <h1>Welcome to Disciplo!</h1>
    </div>
    <div style="background:#f9fafb;padding:30px;border-radius:0 0 10px 10px;">
      <h2>Hi {{.Name}},</h2>
      <p>Great news! Your Disciplo account has been approved and you now have full access to our transformation community.</p>
      <ul>
        <li>Create your first battleplan (30/60/90 day transformation)</li>
        <li>Join accountability groups in your area</li>
        <li>Track your daily routines and progress</li>
        <li>Connect your Telegram for notifications</li>
      </ul>
      <p style="text-align:center;">
        <a href="{{.LoginURL}}" style="display:inline-block;background:#2563eb;color:#fff;padding:12px 30px;text-decoration:none;border-radius:5px;">Login to Disciplo</a>
      </p>
      <p>Best regards,<br>The Disciplo Team</p>
    </div>
  </div>
</body>
</html>`))

var welcomeHTMLTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;font-family:Arial,sans-serif;color:#333;">
  <div style="max-width:600px;margin:0 auto;padding:20px;">
    <div style="background:#f59e0b;color:#fff;padding:30px;text-align:center;border-radius:10px 10px 0 0;">
      <h1>Account Under Review</h1>
    </div>
    <div style="background:#f9fafb;padding:30px;border-radius:0 0 10px 10px;">
      <h2>Hi {{.Name}},</h2>
      <p>Thank you for joining Disciplo! Your registration has been received and is currently under review by our team.</p>
      <p>Review usually takes 1-2 business days. You'll receive an email once approved &mdash; then you can start your transformation journey.</p>
      <p>Best regards,<br>The Disciplo Team</p>
    </div>
  </div>
</body>
</html>`))
