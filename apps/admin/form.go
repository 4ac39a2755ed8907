package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
)

func (cli *commandLine) formKey(ctx context.Context, prgRef, formType string) (form.Key, error) {
	var (
		prg program.Program
		err error
	)
	if _, uErr := uuid.Parse(prgRef); uErr == nil {
		prg, err = cli.programSvc.GetByID(ctx, prgRef)
	} else {
		prg, err = cli.programSvc.GetBySlug(ctx, prgRef)
	}
	if err != nil {
		return form.Key{}, errors.Wrapf(err, "finding program %q", prgRef)
	}
	return form.Key{OwnerID: prg.ID, FormType: strings.ToLower(strings.TrimSpace(formType))}, nil
}

func readSchemaFile(path string) (form.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return form.Schema{}, errors.Wrap(err, "reading schema file")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return form.ParseYAML(data)
	default:
		return form.Parse(data)
	}
}

// schemaDiff returns the unified diff of the YAML renditions of two schemas.
func schemaDiff(from, to form.Schema, fromName, toName string) (string, error) {
	a, err := from.YAML()
	if err != nil {
		return "", errors.Wrap(err, "encoding stored schema")
	}
	b, err := to.YAML()
	if err != nil {
		return "", errors.Wrap(err, "encoding new schema")
	}
	if bytes.Equal(a, b) {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
}

// importForm replaces a stored form with the document of file, after showing what changes.
func (cli *commandLine) importForm(prgRef, formType, file string, dryRun, yes bool) error {
	ctx := context.Background()

	key, err := cli.formKey(ctx, prgRef, formType)
	if err != nil {
		return err
	}
	s, err := readSchemaFile(file)
	if err != nil {
		return err
	}
	if err = s.Check(); err != nil {
		return err
	}

	current, err := cli.formSvc.Get(ctx, key)
	if err != nil {
		current = form.Schema{} // nothing stored yet
	}
	diff, err := schemaDiff(current, s, key.String(), file)
	if err != nil {
		return err
	}
	if diff == "" {
		fmt.Fprintln(cli.out, "no changes")
		return nil
	}
	fmt.Fprint(cli.out, diff)
	if dryRun {
		return nil
	}
	if !yes {
		if err = cli.confirm(fmt.Sprintf("Replace form %s?", key)); err != nil {
			return err
		}
	}

	if _, err = cli.formSvc.Replace(ctx, key, s); err != nil {
		return err
	}
	cli.logger.Info("form imported", map[string]interface{}{"owner_id": key.OwnerID, "form_type": key.FormType, "file": file})
	fmt.Fprintf(cli.out, "form %s imported\n", key)
	return nil
}

func (cli *commandLine) exportForm(prgRef, formType, format string) error {
	ctx := context.Background()

	key, err := cli.formKey(ctx, prgRef, formType)
	if err != nil {
		return err
	}
	s, err := cli.formSvc.Get(ctx, key)
	if err != nil {
		return err
	}

	var data []byte
	if format == "yaml" {
		data, err = s.YAML()
	} else {
		data, err = s.JSON()
		data = append(data, '\n')
	}
	if err != nil {
		return errors.Wrap(err, "encoding schema")
	}
	_, err = cli.out.Write(data)
	return err
}
