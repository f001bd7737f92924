// Copyright 2025 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package env maps RDFEXPR_* environment variables onto command flags.
package env

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type cmdFlags interface {
	CheckEnvironmentVariables(command *cobra.Command) error
}

type cmdFlagsImpl struct{}

var (
	// CmdFlags sets unchanged flags of a command from the environment.
	CmdFlags           cmdFlags = cmdFlagsImpl{}
	errorMessagePrefix          = "error mapping environment variables to command flags"
)

const globalPrefix = "rdfexpr"

// Prefix returns the environment variable prefix of command: RDFEXPR for the
// root command and RDFEXPR_<NAME> for subcommands.
func Prefix(command *cobra.Command) string {
	if command.Name() == globalPrefix {
		return strings.ToUpper(globalPrefix)
	}
	return strings.ToUpper(globalPrefix + "_" + command.Name())
}

// Name returns the environment variable read for flag on command.
func Name(command *cobra.Command, flag string) string {
	return Prefix(command) + "_" + strings.ToUpper(configName(flag))
}

func configName(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// CheckEnvironmentVariables sets every flag not given on the command line
// whose environment variable is present. Slice flags take a comma separated
// list.
func (cmdFlagsImpl) CheckEnvironmentVariables(command *cobra.Command) error {
	var errs []string
	v := viper.New()
	v.SetEnvPrefix(Prefix(command))
	v.AutomaticEnv()

	command.Flags().VisitAll(func(f *pflag.Flag) {
		name := configName(f.Name)
		if f.Changed || !v.IsSet(name) {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			if err := sv.Replace(strings.Split(v.GetString(name), ",")); err != nil {
				errs = append(errs, err.Error())
			}
			return
		}
		if err := command.Flags().Set(f.Name, v.GetString(name)); err != nil {
			errs = append(errs, err.Error())
		}
	})

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %s", errorMessagePrefix, strings.Join(errs, "; "))
}
