package main

import (
	"context"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/access"
)

func (cli *commandLine) setClaims(uid, role, institutionID, childID string) error {
	parsed, err := access.ParseRole(core.CleanString(role))
	if err != nil {
		return err
	}

	ctx := context.Background()
	_, err = cli.usrSvc.SetClaims(ctx, uid, access.Claims{
		Role:          parsed,
		InstitutionID: institutionID,
		ChildID:       childID,
	})
	return err
}
