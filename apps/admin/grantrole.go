package main

import (
	"context"
	"fmt"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/profile"
)

// cliActor outranks every profile.
var cliActor = profile.Profile{ID: "admin-cli", Roles: []string{profile.RoleAdminOwner}}

// grantRole adds role to the roles of an existing profile.
func (cli *commandLine) grantRole(id, role string) error {
	ctx := context.Background()

	p, err := cli.profileSvc.GetByID(ctx, id)
	if err != nil {
		return err
	}

	data := profile.SetRoles{Roles: append(append([]string{}, p.Roles...), role)}
	if err = data.Validate(ctx, cli.validate); err != nil {
		return err
	}
	if core.StringInSlice(core.CleanString(role, true /* lower */), p.Roles) {
		fmt.Fprintf(cli.out, "%s already has role %s\n", p.ID, role)
		return nil
	}

	if p, err = cli.profileSvc.SetRoles(ctx, cliActor, p, data.Roles); err != nil {
		return err
	}
	cli.logger.Info("role granted", map[string]interface{}{"profile_id": p.ID, "role": role})
	fmt.Fprintf(cli.out, "%s roles: %v\n", p.ID, p.Roles)
	return nil
}
