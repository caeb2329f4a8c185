package mailer

import (
	"fmt"
	"time"
)

const passwordResetSubject = "Password Reset Request - KnM Bursary"

const passwordResetText = `Password Reset Request - KnM Bursary

Hello%s,

We received a request to reset your password for your KnM Bursary account.

Your verification code is: %s

IMPORTANT:
- This code will expire in %d minutes
- Never share this code with anyone
- If you didn't request this reset, please ignore this email

If you're having trouble, please contact our support team.

Best regards,
The KnM Bursary Team

---
This is an automated message. Please do not reply to this email.
(c) %d KnM Bursary. All rights reserved.
`

const passwordResetHTML = `<!DOCTYPE html>
<html lang="en">
<body style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f4f4f4;">
  <div style="background: white; padding: 30px; border-radius: 10px;">
    <div style="text-align: center; border-bottom: 3px solid #007bff; padding-bottom: 20px; margin-bottom: 30px;">
      <div style="font-size: 28px; font-weight: bold; color: #007bff;">KnM Bursary</div>
      <p style="margin: 0; color: #666;">Secure Password Reset</p>
    </div>
    <h2>Password Reset Request</h2>
    <p>Hello%s,</p>
    <p>We received a request to reset your password for your KnM Bursary account. To proceed, please use the verification code below:</p>
    <div style="background: #f8f9fa; border: 2px dashed #007bff; border-radius: 8px; padding: 20px; text-align: center; margin: 25px 0;">
      <p style="margin: 0 0 10px 0; font-weight: bold;">Your Verification Code:</p>
      <div style="font-size: 32px; font-weight: bold; color: #007bff; letter-spacing: 3px; font-family: 'Courier New', monospace;">%s</div>
    </div>
    <div style="background: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0;">
      <p style="margin: 0;"><strong>Important Security Information:</strong></p>
      <ul style="margin: 10px 0 0 20px;">
        <li>This code will expire in <strong>%d minutes</strong></li>
        <li>Never share this code with anyone</li>
        <li>If you didn't request this reset, please ignore this email</li>
      </ul>
    </div>
    <p>Best regards,<br><strong>The KnM Bursary Team</strong></p>
    <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; text-align: center;">
      <p>This is an automated message from KnM Bursary. Please do not reply to this email.</p>
      <p>&copy; %d KnM Bursary. All rights reserved.</p>
    </div>
  </div>
</body>
</html>
`

// PasswordResetEmail renders the subject, plain-text and HTML bodies for a
// password reset code notification.
func PasswordResetEmail(firstName, code string, ttl time.Duration) (subject, text, html string) {
	greeting := ""
	if firstName != "" {
		greeting = " " + firstName
	}
	minutes := int(ttl.Minutes())
	if minutes <= 0 {
		minutes = 10
	}
	year := time.Now().Year()

	subject = passwordResetSubject
	text = fmt.Sprintf(passwordResetText, greeting, code, minutes, year)
	html = fmt.Sprintf(passwordResetHTML, greeting, code, minutes, year)
	return subject, text, html
}
