package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/edutrack/edutrack/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	usrSvc *user.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addsuperadmin -email EMAIL - create a SuperAdmin account (password prompted)")
	fmt.Println("  setclaims -uid UID -role ROLE [-institution ID] [-child ID] - override a user's claims")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addSuperAdminCmd := flag.NewFlagSet("addsuperadmin", flag.ExitOnError)
	addSuperAdminEmail := addSuperAdminCmd.String("email", "", "The account's email. The password will be prompted next.")

	setClaimsCmd := flag.NewFlagSet("setclaims", flag.ExitOnError)
	setClaimsUID := setClaimsCmd.String("uid", "", "The target user's id.")
	setClaimsRole := setClaimsCmd.String("role", "", "The role to set.")
	setClaimsInstitution := setClaimsCmd.String("institution", "", "The institution id to set.")
	setClaimsChild := setClaimsCmd.String("child", "", "The child id to set (Parent role).")

	switch args[1] {
	case "addsuperadmin":
		if err := addSuperAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSuperAdminEmail == "" {
			addSuperAdminCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addSuperAdminCmd.Usage()
			return errHelp
		}
		return cli.addSuperAdmin(*addSuperAdminEmail, string(pwd))
	case "setclaims":
		if err := setClaimsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setClaimsUID == "" || *setClaimsRole == "" {
			setClaimsCmd.Usage()
			return errHelp
		}
		return cli.setClaims(*setClaimsUID, *setClaimsRole, *setClaimsInstitution, *setClaimsChild)
	default:
		cli.printUsage()
		return errHelp
	}
}
