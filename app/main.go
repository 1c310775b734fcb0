package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"tutoring/config"

	authDelivery "tutoring/services/auth/delivery"
	authRepository "tutoring/services/auth/repository"
	authUseCase "tutoring/services/auth/usecase"

	attendanceDelivery "tutoring/services/attendance/delivery"
	attendanceRepository "tutoring/services/attendance/repository"
	attendanceUseCase "tutoring/services/attendance/usecase"

	notificationDelivery "tutoring/services/notification/delivery"
	notificationRepository "tutoring/services/notification/repository"
	notificationUseCase "tutoring/services/notification/usecase"

	paymentDelivery "tutoring/services/payment/delivery"
	paymentRepository "tutoring/services/payment/repository"
	paymentUseCase "tutoring/services/payment/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var log *logrus.Logger
var wg sync.WaitGroup

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using process environment")
	}

	log = config.GetLogrusInstance()

	startHTTP()
}

func startHTTP() {
	log.Info("Starting HTTP")
	app := fiber.New(config.GetFiberConfig())

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnvOrDefault("CORS_ALLOW_ORIGINS", "*"),
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	db, err := config.BootDB()
	if err != nil {
		log.WithError(err).Fatal("Failed to boot DB")
		return
	}

	timeOut := config.GetContextTimeout()

	paymentOpts := []paymentUseCase.Option{
		paymentUseCase.WithDueDays(config.GetPaymentDueDays()),
		paymentUseCase.WithGraceDays(config.GetOverdueGraceDays()),
	}

	sender, err := config.InitSender(context.Background())
	if err != nil {
		log.WithError(err).Warn("Reminder channels unavailable, overdue reminders disabled")
	} else {
		senderRepo := notificationRepository.NewSenderRepository(db, sender.SMTPAuth, sender.SMTPAddr, sender.ContactPhone, sender.EmailSender, sender.Meow, log)
		paymentOpts = append(paymentOpts, paymentUseCase.WithReminderSender(notificationUseCase.NewSenderUseCase(senderRepo, timeOut)))
		if sender.Meow != nil {
			defer sender.Meow.Disconnect()
		}
	}

	// Repositories
	authRepo := authRepository.NewAuthRepository(db)
	paymentRepo := paymentRepository.NewPaymentRepository(db)
	attendanceRepo := attendanceRepository.NewAttendanceRepository(db)
	notificationRepo := notificationRepository.NewNotificationRepository(db)

	// Usecases
	authUC := authUseCase.NewAuthUseCase(authRepo, timeOut)
	paymentUC := paymentUseCase.NewPaymentUseCase(paymentRepo, log, timeOut, paymentOpts...)
	attendanceUC := attendanceUseCase.NewAttendanceUseCase(attendanceRepo, paymentUC, log, timeOut)
	notificationUC := notificationUseCase.NewNotificationUseCase(notificationRepo, timeOut)

	// Deliveries
	authDelivery.NewAuthDelivery(app, authUC)
	paymentDelivery.NewPaymentDelivery(app, paymentUC)
	attendanceDelivery.NewAttendanceDelivery(app, attendanceUC)
	notificationDelivery.NewNotificationDelivery(app, notificationUC)

	scheduler, err := config.StartScheduler(config.GetOverdueCronSpec(), paymentUC, 10*timeOut, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to start scheduler")
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("Starting HTTP server on %s", config.GetFiberListenAddress())
		if err := app.Listen(config.GetFiberListenAddress()); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	<-signalChan

	log.Info("Shutting down the server...")

	<-scheduler.Stop().Done()

	if err := app.Shutdown(); err != nil {
		log.Errorf("Error during server shutdown: %v", err)
	}

	wg.Wait()
	log.Info("Server shut down gracefully")
}
