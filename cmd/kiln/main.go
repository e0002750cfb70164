// Package main provides the kiln CLI: inspect ONNX models and compile them
// to WGSL kernels.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kiln-ml/kiln/compiler"
	"github.com/kiln-ml/kiln/internal/gpu"
	"github.com/kiln-ml/kiln/onnx"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("kiln %s\n", version)
	case "info":
		if err := runInfo(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "kiln: %v\n", err)
			os.Exit(1)
		}
	case "compile":
		if err := runCompile(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "kiln: %v\n", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("kiln - ONNX to WGSL shader compiler")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  info <model.onnx>                 Show model metadata")
	fmt.Println("  compile [flags] <model.onnx>      Compile the model to WGSL kernels")
	fmt.Println("    -validate      compile each kernel on the GPU adapter")
	fmt.Println("    -print         print rendered shader source")
	fmt.Println("  version                           Show version")
}

func runInfo(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: kiln info <model.onnx>")
	}
	model, err := onnx.ParseFile(args[0])
	if err != nil {
		return err
	}

	info := model.Info()
	fmt.Printf("Producer:  %s %s\n", info.ProducerName, info.ProducerVersion)
	fmt.Printf("Opset:     %d\n", info.OpsetVersion)
	fmt.Printf("Inputs:    %v\n", info.InputNames)
	fmt.Printf("Outputs:   %v\n", info.OutputNames)
	fmt.Printf("Operators: %v\n", info.Operators)
	return nil
}

func runCompile(args []string) error {
	flags := flag.NewFlagSet("compile", flag.ContinueOnError)
	validate := flags.Bool("validate", false, "compile each kernel on the GPU adapter")
	printSource := flags.Bool("print", false, "print rendered shader source")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: kiln compile [flags] <model.onnx>")
	}

	model, err := onnx.ParseFile(flags.Arg(0))
	if err != nil {
		return err
	}
	shapes, err := onnx.NewShapeTable(model.Graph)
	if err != nil {
		return err
	}

	ops, err := compiler.CompileModel(model, shapes)
	if err != nil {
		return err
	}

	var validator *gpu.Validator
	if *validate {
		validator, err = gpu.New()
		if err != nil {
			return err
		}
		defer validator.Release()
	}

	for _, op := range ops {
		k := op.Kernel
		fmt.Printf("%-40s %-28s dispatch (%d, %d, %d)\n", op.Node, k.Template, k.X, k.Y, k.Z)
		if *printSource {
			fmt.Println(k.Source)
		}
		if validator != nil {
			if err := validator.Validate(k.Source); err != nil {
				return fmt.Errorf("%s: %w", op.Node, err)
			}
		}
	}
	fmt.Printf("%d kernels compiled\n", len(ops))
	return nil
}
