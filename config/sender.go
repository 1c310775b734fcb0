package config

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/lib/pq"
	"github.com/skip2/go-qrcode"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
)

// Sender groups the outbound channels used for parent reminders.
// Meow is nil when WhatsApp is disabled.
type Sender struct {
	Meow         *whatsmeow.Client
	SMTPAuth     smtp.Auth
	SMTPAddr     string
	EmailSender  string
	ContactPhone string
}

var (
	qrCodeSent bool
	mu         sync.Mutex
)

func InitSender(ctx context.Context) (*Sender, error) {
	emailSender, err := requireEnv("EMAIL_SENDER")
	if err != nil {
		return nil, err
	}

	emailPassword, err := requireEnv("EMAIL_SENDER_PASSWORD")
	if err != nil {
		return nil, err
	}

	smtpHost, err := requireEnv("SMTP_HOST")
	if err != nil {
		return nil, err
	}

	smtpPort := GetEnvOrDefault("SMTP_PORT", "587")

	contactPhone, err := requireEnv("CONTACT_PHONE")
	if err != nil {
		return nil, err
	}

	sender := &Sender{
		SMTPAuth:     smtp.PlainAuth("", emailSender, emailPassword, smtpHost),
		SMTPAddr:     fmt.Sprintf("%s:%s", smtpHost, smtpPort),
		EmailSender:  emailSender,
		ContactPhone: contactPhone,
	}
	log := GetLogrusInstance()
	log.Info("SMTP initialized")

	if !GetEnvBool("WHATSAPP_ENABLED", true) {
		log.Warn("WhatsApp disabled, reminders go out by email only")
		return sender, nil
	}

	meow, err := initMeow(ctx, sender)
	if err != nil {
		return nil, err
	}
	sender.Meow = meow

	return sender, nil
}

func initMeow(ctx context.Context, sender *Sender) (*whatsmeow.Client, error) {
	log := GetLogrusInstance()

	dbms := GetEnvOrDefault("DBMS", "postgres")
	user, err := requireEnv("DB_USER")
	if err != nil {
		return nil, err
	}
	pass, err := requireEnv("DB_PASSWORD")
	if err != nil {
		return nil, err
	}
	dbname, err := requireEnv("DB_DATABASE")
	if err != nil {
		return nil, err
	}

	meowAddress := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		GetEnvOrDefault("DB_HOST", "localhost"), GetEnvOrDefault("DB_PORT", "5432"), user, pass, dbname)

	container, err := sqlstore.New(ctx, dbms, meowAddress, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open whatsapp store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load whatsapp device: %w", err)
	}
	client := whatsmeow.NewClient(deviceStore, nil)

	if client.Store.ID != nil {
		if err := client.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect whatsapp: %w", err)
		}
		log.Info("WhatsMeow initialized")
		return client, nil
	}

	qrChan, err := client.GetQRChannel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open whatsapp qr channel: %w", err)
	}
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect whatsapp: %w", err)
	}

	// Pairing runs in the background so the HTTP server can start
	go func() {
		for evt := range qrChan {
			if evt.Event != "code" {
				log.WithField("event", evt.Event).Info("WhatsApp login event")
				continue
			}

			mu.Lock()
			if !qrCodeSent {
				log.Warn("No WhatsApp session found, an admin needs to scan the QR code")
				if err := generateQRCode(evt.Code, "qrcode.png"); err != nil {
					log.WithError(err).Error("QR code generation failed")
				} else if err := SendQRtoEmail(sender.SMTPAddr, sender.SMTPAuth, sender.EmailSender, "qrcode.png"); err != nil {
					log.WithError(err).Error("QR code email failed")
				} else {
					log.Infof("QR code sent to %s", sender.EmailSender)
					qrCodeSent = true
				}
			}
			mu.Unlock()
		}
	}()

	return client, nil
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s is missing", key)
	}
	return v, nil
}

func generateQRCode(data, filePath string) error {
	err := qrcode.WriteFile(data, qrcode.Medium, 256, filePath)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}
	return nil
}

func SendQRtoEmail(smtpAddr string, smtpAuth smtp.Auth, emailSender string, qrFilePath string) error {
	subject := fmt.Sprintf("Subject: %s WhatsApp QR Code Login\n", GetAppName())
	body := "Please find the attached QR code for login.\n\n"

	fileData, err := os.ReadFile(qrFilePath)
	if err != nil {
		return fmt.Errorf("failed to read QR code file: %w", err)
	}

	fileName := filepath.Base(qrFilePath)
	boundary := "qr-boundary-7f3a"

	msg := []byte("From: " + emailSender + "\n" +
		"To: " + emailSender + "\n" +
		subject +
		"MIME-Version: 1.0\n" +
		"Content-Type: multipart/mixed; boundary=" + boundary + "\n\n" +
		"--" + boundary + "\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\n\n" +
		body + "\n\n" +
		"--" + boundary + "\n" +
		"Content-Type: image/png\n" +
		"Content-Disposition: attachment; filename=\"" + fileName + "\"\n" +
		"Content-Transfer-Encoding: base64\n\n")

	msg = append(msg, []byte(base64.StdEncoding.EncodeToString(fileData))...)
	msg = append(msg, []byte("\n--"+boundary+"--")...)

	if err := smtp.SendMail(smtpAddr, smtpAuth, emailSender, []string{emailSender}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
