package main

import (
	"fmt"
	"strings"

	"github.com/KRSaiVarun/pdf-analysis-tool/internal/config"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/pdfx"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/report"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/task"
	"github.com/KRSaiVarun/pdf-analysis-tool/internal/textutil"
)

func runExtract(args []string) error {
	var path, output string
	var raw bool
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--raw":
			raw = true
		case (args[i] == "--output" || args[i] == "-o") && i+1 < len(args):
			i++
			output = args[i]
		case strings.HasPrefix(args[i], "--output="):
			output = strings.TrimPrefix(args[i], "--output=")
		case strings.HasPrefix(args[i], "-"):
			return fmt.Errorf("unknown flag: %s", args[i])
		default:
			if path != "" {
				return fmt.Errorf("unexpected argument: %s", args[i])
			}
			path = args[i]
		}
	}
	if path == "" {
		return fmt.Errorf("usage: pdf-analyze extract <file.pdf> [--raw] [--output <path>]")
	}

	doc, err := pdfx.New(newLogger()).ExtractText(path)
	if err != nil {
		return err
	}
	text := doc.Text
	if !raw {
		text = textutil.Normalize(text)
	}

	if output != "" {
		if err := report.Write(output, text); err != nil {
			return err
		}
		fmt.Printf("Text saved to: %s\n", output)
		return nil
	}
	fmt.Println(text)
	return nil
}

func runMetadata(args []string) error {
	path, err := onePath(args, "metadata")
	if err != nil {
		return err
	}

	md, err := pdfx.New(newLogger()).ExtractMetadata(path)
	if err != nil {
		return err
	}
	out, err := report.JSON(md)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runRows(args []string) error {
	path, err := onePath(args, "rows")
	if err != nil {
		return err
	}

	rows, err := pdfx.New(newLogger()).ExtractRows(path)
	if err != nil {
		return err
	}
	for _, row := range rows {
		fmt.Println(row)
	}
	return nil
}

func runTasks(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("usage: pdf-analyze tasks")
	}

	fmt.Println("Available analysis tasks:")
	fmt.Println()
	for _, info := range task.Catalog() {
		fmt.Printf("  %-10s %s\n", info.Name, info.Description)
	}
	fmt.Println()
	fmt.Println("Select one with --task (default: general).")
	return nil
}

func runConfig(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("usage: pdf-analyze config")
	}

	resolved, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath: globalConfigPath,
		CLIModel:   globalModel,
	})
	if err != nil {
		return err
	}

	// Keys are shown masked; the source tells the user where to look.
	for provider, key := range resolved.APIKeys {
		key.Value = maskKey(key.Value)
		resolved.APIKeys[provider] = key
	}

	out, err := report.JSON(resolved)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// onePath parses a command that takes exactly one positional PDF path.
func onePath(args []string, cmd string) (string, error) {
	var path string
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			return "", fmt.Errorf("unknown flag: %s", arg)
		}
		if path != "" {
			return "", fmt.Errorf("unexpected argument: %s", arg)
		}
		path = arg
	}
	if path == "" {
		return "", fmt.Errorf("usage: pdf-analyze %s <file.pdf>", cmd)
	}
	return path, nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "..."
}
