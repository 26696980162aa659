package main

import (
	"context"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/core/user"
)

// addSuperAdmin bootstraps a SuperAdmin account: credential in the gateway,
// claims mirrored, User document persisted.
func (cli *commandLine) addSuperAdmin(email, pwd string) error {
	ctx := context.Background()
	_, err := cli.usrSvc.Register(ctx, user.NewUser{
		Email:    core.CleanString(email, true /* lower */),
		Password: pwd,
		Role:     access.RoleSuperAdmin.String(),
	})
	return err
}
