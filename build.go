//go:build ignore

// build.go - GENBEA build script
// Usage: go run build.go [-target=TARGET] [-version=X.Y.Z] [-v]
// Targets: all, web, report, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const module = "genbea"

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	Version string
	RepoURL string
	GOOS    string
	GOARCH  string
	OutDir  string
}

var (
	// Executable names (key = source dir under cmd/, value = output name)
	executables = map[string]string{
		"genbea-web":    "genbea-web",
		"genbea-report": "genbea-report",
	}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	version := flag.String("version", "", "Version stamped into the binaries (default: internal/config.AppVersion)")
	repoURL := flag.String("repo-url", "", "Repository URL reported by /api/version")
	flag.Parse()

	if runtime.GOOS == "windows" {
		colorReset, colorRed, colorGreen, colorYellow, colorCyan = "", "", "", "", ""
	}

	printHeader()
	start := time.Now()

	ctx := &BuildContext{
		Verbose: *verbose,
		Version: *version,
		RepoURL: *repoURL,
		GOOS:    runtime.GOOS,
		GOARCH:  runtime.GOARCH,
		OutDir:  "dist",
	}

	var err error
	switch *target {
	case "all":
		err = buildAll(ctx)
	case "web":
		err = buildExecutable("genbea-web", ctx)
	case "report":
		err = buildExecutable("genbea-report", ctx)
	case "test":
		err = runTests(ctx.Verbose)
	case "clean":
		err = clean(ctx)
	case "release":
		err = buildRelease(ctx)
	default:
		printError(fmt.Sprintf("Unknown target: %s", *target))
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Done in %s", time.Since(start).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Printf("%s== %s build ==%s\n", colorCyan, module, colorReset)
}

func printInfo(msg string) {
	fmt.Printf("%s>%s %s\n", colorCyan, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%sOK%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "%sERROR%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%sWARN%s %s\n", colorYellow, colorReset, msg)
}

func buildAll(ctx *BuildContext) error {
	for name := range executables {
		if err := buildExecutable(name, ctx); err != nil {
			return err
		}
	}
	return copyConfigExample(ctx)
}

// buildExecutable compiles cmd/<name> with version metadata stamped into
// internal/app.
func buildExecutable(name string, ctx *BuildContext) error {
	output := executables[name]
	if output == "" {
		return fmt.Errorf("no executable named %s", name)
	}
	if ctx.GOOS == "windows" {
		output += ".exe"
	}
	outPath := filepath.Join(ctx.OutDir, output)

	ldflags := []string{"-s", "-w",
		fmt.Sprintf("-X %s/internal/app.BuildTime=%s", module, time.Now().UTC().Format(time.RFC3339)),
	}
	if ctx.Version != "" {
		ldflags = append(ldflags, fmt.Sprintf("-X %s/internal/app.Version=%s", module, ctx.Version))
	}
	if ctx.RepoURL != "" {
		ldflags = append(ldflags, fmt.Sprintf("-X %s/internal/app.RepoURL=%s", module, ctx.RepoURL))
	}

	printInfo(fmt.Sprintf("Building %s (%s/%s)", outPath, ctx.GOOS, ctx.GOARCH))

	cmd := exec.Command("go", "build", "-trimpath", "-ldflags", strings.Join(ldflags, " "), "-o", outPath, "./cmd/"+name)
	cmd.Env = append(os.Environ(), "GOOS="+ctx.GOOS, "GOARCH="+ctx.GOARCH, "CGO_ENABLED=0")
	if ctx.Verbose {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build %s: %w", name, err)
	}
	return nil
}

func runTests(verbose bool) error {
	args := []string{"test", "-race", "./..."}
	if verbose {
		args = append(args, "-v")
	}
	printInfo("Running tests")
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func clean(ctx *BuildContext) error {
	printInfo(fmt.Sprintf("Removing %s", ctx.OutDir))
	if err := os.RemoveAll(ctx.OutDir); err != nil {
		return err
	}
	if _, err := os.Stat("logs"); err == nil {
		printWarning("logs/ left in place")
	}
	return nil
}

// buildRelease cross-compiles both binaries for the supported platforms into
// dist/<os>-<arch>.
func buildRelease(ctx *BuildContext) error {
	platforms := [][2]string{{"linux", "amd64"}, {"windows", "amd64"}, {"darwin", "arm64"}}
	for _, p := range platforms {
		rel := *ctx
		rel.GOOS, rel.GOARCH = p[0], p[1]
		rel.OutDir = filepath.Join(ctx.OutDir, p[0]+"-"+p[1])
		if err := buildAll(&rel); err != nil {
			return err
		}
	}
	return nil
}

func copyConfigExample(ctx *BuildContext) error {
	src := filepath.Join("configs", "config.example.yaml")
	data, err := os.ReadFile(src)
	if err != nil {
		printWarning(fmt.Sprintf("%s not copied: %v", src, err))
		return nil
	}
	if err := os.MkdirAll(ctx.OutDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(ctx.OutDir, "config.example.yaml"), data, 0644)
}

func showHelp() {
	fmt.Println(`Targets:
  all      build genbea-web and genbea-report into dist/
  web      build genbea-web
  report   build genbea-report
  test     run go test -race ./...
  clean    remove dist/
  release  cross-compile for linux, windows and darwin`)
}
