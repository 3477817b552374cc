// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/dalemusser/reviewhub/internal/app/system/htmlsanitize"
)

// TeamName signs every outgoing message.
const TeamName = "The Review Team"

// layoutData feeds the shared HTML layout.
type layoutData struct {
	Title       string
	Heading     string
	Greeting    string
	Lines       []string
	Details     []detail
	Body        template.HTML
	ButtonURL   string
	ButtonLabel string
	Footer      string
	Team        string
}

type detail struct {
	Label string
	Value string
}

var layoutTmpl = template.Must(template.New("layout").Parse(layoutHTMLTemplate))

func renderHTML(d layoutData) string {
	d.Team = TeamName
	var buf bytes.Buffer
	_ = layoutTmpl.Execute(&buf, d)
	return buf.String()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Reviewer account created                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// ReviewerWelcomeData holds data for the new-reviewer credentials email.
type ReviewerWelcomeData struct {
	FirstName string
	Email     string
	Password  string
	LoginURL  string
}

// BuildReviewerWelcomeEmail tells a new reviewer their login and generated password.
func BuildReviewerWelcomeEmail(data ReviewerWelcomeData) Email {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Hello %s,\n\n", data.FirstName)
	buf.WriteString("An account has been created for you as a reviewer.\n\n")
	fmt.Fprintf(&buf, "Login: %s\nPassword: %s\n\n", data.Email, data.Password)
	fmt.Fprintf(&buf, "Sign in: %s\n\n", data.LoginURL)
	buf.WriteString("Please change your password after first login.\n\n")
	fmt.Fprintf(&buf, "Thanks,\n%s\n", TeamName)

	return Email{
		To:       data.Email,
		Subject:  "Your reviewer account for Review Team",
		TextBody: buf.String(),
		HTMLBody: renderHTML(layoutData{
			Title:    "Reviewer account created",
			Heading:  "Reviewer account created",
			Greeting: "Hello " + data.FirstName + ",",
			Lines:    []string{"An account has been created for you as a reviewer."},
			Details: []detail{
				{Label: "Login", Value: data.Email},
				{Label: "Password", Value: data.Password},
			},
			ButtonURL:   data.LoginURL,
			ButtonLabel: "Sign In",
			Footer:      "Please change your password after first login.",
		}),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Reviewer password set by an admin                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// ReviewerPasswordData holds data for the admin password-set email.
type ReviewerPasswordData struct {
	Email    string
	Password string
	LoginURL string
}

// BuildReviewerPasswordEmail tells a reviewer their password was reset by an admin.
func BuildReviewerPasswordEmail(data ReviewerPasswordData) Email {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Your password has been reset. New password: %s\n\n", data.Password)
	if data.LoginURL != "" {
		fmt.Fprintf(&buf, "Sign in: %s\n\n", data.LoginURL)
	}
	fmt.Fprintf(&buf, "Thanks,\n%s\n", TeamName)

	return Email{
		To:       data.Email,
		Subject:  "Your reviewer password has been reset",
		TextBody: buf.String(),
		HTMLBody: renderHTML(layoutData{
			Title:       "Password reset",
			Heading:     "Your password has been reset",
			Details:     []detail{{Label: "New password", Value: data.Password}},
			ButtonURL:   data.LoginURL,
			ButtonLabel: "Sign In",
		}),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Forgot password                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// PasswordResetData holds data for the forgot-password email.
type PasswordResetData struct {
	Email     string
	ResetURL  string
	ExpiresIn string // e.g., "3 days"
}

// BuildPasswordResetEmail carries the reset link for a user.
func BuildPasswordResetEmail(data PasswordResetData) Email {
	var buf bytes.Buffer
	buf.WriteString("Click the link below to reset your password:\n\n")
	buf.WriteString(data.ResetURL + "\n\n")
	if data.ExpiresIn != "" {
		fmt.Fprintf(&buf, "This link expires in %s.\n\n", data.ExpiresIn)
	}
	buf.WriteString("If you did not request a password reset, you can safely ignore this email.\n")

	footer := "If you did not request a password reset, you can safely ignore this email."
	if data.ExpiresIn != "" {
		footer = "This link expires in " + data.ExpiresIn + ". " + footer
	}
	return Email{
		To:       data.Email,
		Subject:  "Reset Your Password",
		TextBody: buf.String(),
		HTMLBody: renderHTML(layoutData{
			Title:       "Reset Your Password",
			Heading:     "Reset your password",
			Lines:       []string{"Click the button below to choose a new password."},
			ButtonURL:   data.ResetURL,
			ButtonLabel: "Reset Password",
			Footer:      footer,
		}),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Project decision and admin notices                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// DecisionData holds data for the accepted/rejected email.
type DecisionData struct {
	To         string
	Title      string
	Summary    string // as submitted; sanitized before embedding
	Status     string
	ProjectURL string
}

// BuildDecisionEmail tells the submitter their project was accepted or rejected.
func BuildDecisionEmail(data DecisionData) Email {
	var buf bytes.Buffer
	buf.WriteString("Hello,\n\n")
	fmt.Fprintf(&buf, "Your project \"%s\" has been %s.\n\n", data.Title, data.Status)
	writeSummary(&buf, data.Summary)
	fmt.Fprintf(&buf, "View: %s\n\n", data.ProjectURL)
	fmt.Fprintf(&buf, "Thank you,\n%s\n", TeamName)

	return Email{
		To:       data.To,
		Subject:  fmt.Sprintf("Your project \"%s\" has been %s", data.Title, data.Status),
		TextBody: buf.String(),
		HTMLBody: renderHTML(layoutData{
			Title:       "Project " + data.Status,
			Heading:     "Your project has been " + data.Status,
			Lines:       []string{data.Title},
			Body:        htmlsanitize.PrepareForDisplay(data.Summary),
			Details:     []detail{{Label: "Status", Value: data.Status}},
			ButtonURL:   data.ProjectURL,
			ButtonLabel: "View project",
		}),
	}
}

// NoticeData holds data for an admin's free-form message about a project.
type NoticeData struct {
	To         string
	Title      string
	Summary    string
	Message    string
	ProjectURL string
}

// BuildNoticeEmail wraps an admin message about a project.
func BuildNoticeEmail(data NoticeData) Email {
	var buf bytes.Buffer
	buf.WriteString("Hello,\n\n")
	if data.Message != "" {
		buf.WriteString(data.Message + "\n\n")
	}
	fmt.Fprintf(&buf, "Project: %s\n\n", data.Title)
	writeSummary(&buf, data.Summary)
	fmt.Fprintf(&buf, "View: %s\n\n", data.ProjectURL)
	fmt.Fprintf(&buf, "Thank you,\n%s\n", TeamName)

	var lines []string
	lines = append(lines, data.Title)
	if data.Message != "" {
		lines = append(lines, strings.Split(data.Message, "\n")...)
	}
	return Email{
		To:       data.To,
		Subject:  fmt.Sprintf("Notification regarding your project \"%s\"", data.Title),
		TextBody: buf.String(),
		HTMLBody: renderHTML(layoutData{
			Title:       "Project notification",
			Heading:     "Message regarding your project",
			Lines:       lines,
			Body:        htmlsanitize.PrepareForDisplay(data.Summary),
			ButtonURL:   data.ProjectURL,
			ButtonLabel: "View project",
		}),
	}
}

// writeSummary adds the plain-text form of a rich-text summary, if any.
func writeSummary(buf *bytes.Buffer, summary string) {
	if text := htmlsanitize.StripTags(summary); text != "" {
		buf.WriteString("Summary:\n" + text + "\n\n")
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Contact form                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// ContactData holds a visitor's contact form submission.
type ContactData struct {
	To      string
	Name    string
	Email   string
	Message string
}

// BuildContactEmail forwards a contact form message; Reply-To is the visitor.
func BuildContactEmail(data ContactData) Email {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s <%s>\n\n", data.Name, data.Email)
	buf.WriteString(htmlsanitize.StripTags(data.Message) + "\n")

	return Email{
		To:       data.To,
		ReplyTo:  data.Email,
		Subject:  "Contact form message from " + data.Name,
		TextBody: buf.String(),
		HTMLBody: renderHTML(layoutData{
			Title:   "Contact form",
			Heading: "New contact form message",
			Details: []detail{
				{Label: "Name", Value: data.Name},
				{Label: "Email", Value: data.Email},
			},
			Body: htmlsanitize.PrepareForDisplay(data.Message),
		}),
	}
}

const layoutHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6; color: #333333;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 560px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 16px; border-bottom: 1px solid #e5e7eb;">
              <h2 style="margin: 0; font-size: 22px; color: #1f2937;">{{.Heading}}</h2>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; font-size: 15px; line-height: 1.5;">
              {{if .Greeting}}<p style="margin: 0 0 16px;">{{.Greeting}}</p>{{end}}
              {{range .Lines}}<p style="margin: 0 0 12px;">{{.}}</p>{{end}}
              {{if .Body}}<div style="margin: 16px 0; padding: 16px; background-color: #f9fafb; border-radius: 6px;">{{.Body}}</div>{{end}}
              {{range .Details}}<p style="margin: 0 0 8px;"><strong>{{.Label}}:</strong> {{.Value}}</p>{{end}}
              {{if .ButtonURL}}
              <p style="margin: 24px 0;">
                <a href="{{.ButtonURL}}" style="display: inline-block; padding: 12px 28px; background-color: #4f46e5; color: #ffffff; text-decoration: none; border-radius: 6px;">{{.ButtonLabel}}</a>
              </p>
              {{end}}
              <p style="margin: 16px 0 0;">Thanks,<br>{{.Team}}</p>
            </td>
          </tr>
          {{if .Footer}}
          <tr>
            <td style="padding: 16px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af;">{{.Footer}}</p>
            </td>
          </tr>
          {{end}}
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
