package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/edutrack/edutrack/apps/api/echo"
	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/analytics"
	"github.com/edutrack/edutrack/core/course"
	"github.com/edutrack/edutrack/core/enrollment"
	"github.com/edutrack/edutrack/core/identity"
	"github.com/edutrack/edutrack/core/user"
	emailsvc "github.com/edutrack/edutrack/services/email"
	identitysvc "github.com/edutrack/edutrack/services/identity"
	logsvc "github.com/edutrack/edutrack/services/logger"
	firestoredb "github.com/edutrack/edutrack/storage/database/firestore"
	inmemdb "github.com/edutrack/edutrack/storage/database/inmem"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig(core.Getwd())
	if err != nil {
		log.Fatalf("loading config: %+v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	ctx := context.Background()

	// set up store & identity gateway
	var (
		userRepo user.Repository
		crsRepo  course.Repository
		enrRepo  enrollment.Repository
		gateway  identity.Gateway
	)
	if conf.Firebase.ProjectID != "" {
		client, err := firestoredb.Open(ctx, conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up firestore: %v", err), err)
		}
		defer func() {
			if err = client.Close(); err != nil {
				logger.Error(fmt.Sprintf("closing firestore client: %v", err), err)
			}
		}()
		userRepo = firestoredb.NewUserRepository(client)
		crsRepo = firestoredb.NewCourseRepository(client)
		enrRepo = firestoredb.NewEnrollmentRepository(client)

		if gateway, err = identitysvc.NewFirebaseGateway(ctx, conf); err != nil {
			logger.Fatal(fmt.Sprintf("setting up firebase gateway: %v", err), err)
		}
	} else {
		// no project configured: everything stays in process (dev mode)
		db := inmemdb.Open()
		userRepo = inmemdb.NewUserRepository(db)
		crsRepo = inmemdb.NewCourseRepository(db)
		enrRepo = inmemdb.NewEnrollmentRepository(db)
		gateway = identitysvc.NewLocalGateway(conf)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(conf, userRepo, gateway, mailSvc)
	enrSvc := enrollment.NewService(conf, enrRepo)
	crsSvc := course.NewService(conf, crsRepo, enrRepo)
	anlSvc := analytics.NewService(crsRepo, enrRepo)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		&echoapi.Options{
			Addr:          conf.ServerAddr(),
			Conf:          conf,
			Logger:        logger,
			Gateway:       gateway,
			UserSvc:       usrSvc,
			CourseSvc:     crsSvc,
			EnrollmentSvc: enrSvc,
			AnalyticsSvc:  anlSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal(fmt.Sprintf("server error: %v", err), err)
		}

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
