package main

import (
	"fmt"
	"log"
	"net/http"
	"net/smtp"

	"github.com/gin-gonic/gin"
)

func setupContactRoutes(r *gin.Engine) {
	r.POST("/contact", func(c *gin.Context) {
		name := c.PostForm("fullName")
		email := c.PostForm("email")
		message := c.PostForm("message")

		if name == "" || email == "" || message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fullName, email and message are required"})
			return
		}

		if err := sendContactEmail(name, email, message); err != nil {
			log.Printf("Error sending contact email: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Sorry, there was an error sending your message. Please try again later.",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": "Thank you for your message! I'll get back to you soon.",
		})
	})
}

func sendContactEmail(name, email, message string) error {
	if cfg.SMTPUser == "" || cfg.SMTPPass == "" || cfg.ToEmail == "" {
		return fmt.Errorf("SMTP credentials not configured")
	}

	smtpHost := cfg.SMTPHost
	if smtpHost == "" {
		smtpHost = "smtp.gmail.com"
	}

	subject := fmt.Sprintf("Portfolio Contact: %s", name)
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, name, email, message)

	msg := []byte("To: " + cfg.ToEmail + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + cfg.SMTPUser + "\r\n" +
		"Reply-To: " + email + "\r\n" +
		"\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, smtpHost)
	if err := smtp.SendMail(smtpHost+":"+cfg.SMTPPort, auth, cfg.SMTPUser, []string{cfg.ToEmail}, msg); err != nil {
		return err
	}

	log.Printf("Contact email sent from %s (%s)", name, email)
	return nil
}
