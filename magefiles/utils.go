//go:build mage

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type cmdOptions struct {
	args   []string
	env    map[string]string
	stream bool
}

type cmdOption func(*cmdOptions)

func withArgs(args ...string) cmdOption {
	return func(o *cmdOptions) {
		o.args = args
	}
}

func withEnv(key, value string) cmdOption {
	return func(o *cmdOptions) {
		if o.env == nil {
			o.env = map[string]string{}
		}
		o.env[key] = value
	}
}

func withStream() cmdOption {
	return func(o *cmdOptions) {
		o.stream = true
	}
}

// executeCmd runs command through mage's sh and returns its combined
// output. Output is echoed live with -v or withStream.
func executeCmd(command string, options ...cmdOption) (string, error) {
	opts := &cmdOptions{}
	for _, o := range options {
		o(opts)
	}
	fmt.Printf("Executing: %s %s\n", command, strings.Join(opts.args, " "))

	var out bytes.Buffer
	var w io.Writer = &out
	echo := mg.Verbose() || opts.stream
	if echo {
		w = io.MultiWriter(&out, os.Stdout)
	}
	if _, err := sh.Exec(opts.env, w, w, command, opts.args...); err != nil {
		if !echo {
			fmt.Print(out.String())
		}
		return "", fmt.Errorf("%s %s: %w", command, strings.Join(opts.args, " "), err)
	}
	return out.String(), nil
}

func goModDownload() error {
	_, err := executeCmd("go", withArgs("mod", "download"))
	return err
}

// configArgs prepends -config when GARDENIA_CONFIG is set.
func configArgs(args ...string) []string {
	if path := os.Getenv("GARDENIA_CONFIG"); path != "" {
		return append([]string{"-config", path}, args...)
	}
	return args
}
