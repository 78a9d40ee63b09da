package main

import (
	"context"
	"fmt"
	"go/format"
	"log"
	"os"
	"strings"
	"time"

	"github.com/delaneyj/propparty/cmd/codegen/templates"
	"github.com/urfave/cli/v3"
)

const (
	typeKey    = "type"
	packageKey = "package"
	propKey    = "prop"
	outKey     = "out"
)

func main() {
	cmd := &cli.Command{
		Name:  "generate",
		Usage: "Generate property declarations for an owner type",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     typeKey,
				Usage:    "Owner type name, e.g. Car",
				Required: true,
			},
			&cli.StringFlag{
				Name:  packageKey,
				Usage: "Package of the generated file",
				Value: "main",
			},
			&cli.StringSliceFlag{
				Name:  propKey,
				Usage: "Property as name:type or name:type:setter, repeatable",
			},
			&cli.StringFlag{
				Name:  outKey,
				Usage: "Output file, defaults to <type>_props.go",
			},
		},
		Action: generate,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func generate(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	typeName := cmd.String(typeKey)
	log.Printf("Codegen for %s started !", typeName)
	defer func() {
		log.Printf("Codegen for %s finished in %v", typeName, time.Since(start))
	}()

	contents, err := render(cmd.String(packageKey), typeName, cmd.StringSlice(propKey))
	if err != nil {
		return err
	}

	out := cmd.String(outKey)
	if out == "" {
		out = strings.ToLower(typeName) + "_props.go"
	}
	log.Printf("Writing %s", out)
	return os.WriteFile(out, contents, 0644)
}

func render(pkg, typeName string, specs []string) ([]byte, error) {
	owner, err := templates.NewOwner(pkg, typeName, specs)
	if err != nil {
		return nil, err
	}
	src := templates.PropsGen(owner)
	formatted, err := format.Source([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w", err)
	}
	return formatted, nil
}
