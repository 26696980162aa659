package main

import (
	"context"
	"log"
	"os"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/identity"
	"github.com/edutrack/edutrack/core/user"
	emailsvc "github.com/edutrack/edutrack/services/email"
	identitysvc "github.com/edutrack/edutrack/services/identity"
	firestoredb "github.com/edutrack/edutrack/storage/database/firestore"
	inmemdb "github.com/edutrack/edutrack/storage/database/inmem"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig(core.Getwd())
	errAndDie(err)

	ctx := context.Background()

	var (
		usrRepo user.Repository
		gateway identity.Gateway
	)
	if conf.Firebase.ProjectID != "" {
		client, err := firestoredb.Open(ctx, conf)
		errAndDie(err)
		defer client.Close()
		usrRepo = firestoredb.NewUserRepository(client)

		gateway, err = identitysvc.NewFirebaseGateway(ctx, conf)
		errAndDie(err)
	} else {
		usrRepo = inmemdb.NewUserRepository(inmemdb.Open())
		gateway = identitysvc.NewLocalGateway(conf)
	}

	// start CLI
	cli := commandLine{
		usrSvc: user.NewService(conf, usrRepo, gateway, emailsvc.NewConsoleService(conf)),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
