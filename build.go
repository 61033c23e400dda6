//go:build ignore

// build.go - cohort dashboard build script
// Usage: go run build.go [-target=TARGET]
// Targets: all, dashboard, report, test, clean, release

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

const module = "github.com/abhimanyukatariya/msh-interactive-dashboard"

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	Version string
}

var (
	distDir = "dist"

	// Commands to build (key = directory under cmd/, value = output name)
	executables = map[string]string{
		"dashboard":     "msh-dashboard",
		"cohort-report": "cohort-report",
	}

	// Release platforms as GOOS/GOARCH
	platforms = []string{"linux/amd64", "linux/arm64", "darwin/arm64", "windows/amd64"}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	version := flag.String("version", gitVersion(), "Version stamped into the binaries")
	flag.Parse()

	ctx := &BuildContext{Verbose: *verbose, Version: *version}
	startTime := time.Now()

	var err error
	switch *target {
	case "all":
		err = buildAll(ctx)
	case "dashboard":
		err = buildExecutable(ctx, "dashboard", runtime.GOOS, runtime.GOARCH)
	case "report":
		err = buildExecutable(ctx, "cohort-report", runtime.GOOS, runtime.GOARCH)
	case "test":
		err = runTests(ctx)
	case "clean":
		err = clean(ctx)
	case "release":
		err = buildRelease(ctx)
	default:
		showHelp()
		os.Exit(1)
	}
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

func buildAll(ctx *BuildContext) error {
	printInfo("Building all commands...")
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", distDir, err)
	}
	for name := range executables {
		if err := buildExecutable(ctx, name, runtime.GOOS, runtime.GOARCH); err != nil {
			return err
		}
	}
	return copyConfigFiles(ctx)
}

// buildExecutable compiles cmd/<name> for goos/goarch into dist/.
func buildExecutable(ctx *BuildContext, name, goos, goarch string) error {
	out := executables[name]
	if goos != runtime.GOOS || goarch != runtime.GOARCH {
		out = fmt.Sprintf("%s-%s-%s", out, goos, goarch)
	}
	if goos == "windows" {
		out += ".exe"
	}
	outPath := filepath.Join(distDir, out)
	printInfo(fmt.Sprintf("Building %s -> %s", name, outPath))

	ldflags := fmt.Sprintf("-s -w -X main.version=%s", ctx.Version)
	cmd := exec.Command("go", "build", "-trimpath", "-ldflags", ldflags, "-o", outPath, "./cmd/"+name)
	cmd.Env = append(os.Environ(), "GOOS="+goos, "GOARCH="+goarch, "CGO_ENABLED=0")
	return run(ctx, cmd)
}

func buildRelease(ctx *BuildContext) error {
	printInfo(fmt.Sprintf("Building release %s", ctx.Version))
	if err := clean(ctx); err != nil {
		return err
	}
	if err := runTests(ctx); err != nil {
		return err
	}
	for _, p := range platforms {
		goos, goarch, _ := strings.Cut(p, "/")
		for name := range executables {
			if err := buildExecutable(ctx, name, goos, goarch); err != nil {
				return err
			}
		}
	}
	return copyConfigFiles(ctx)
}

func runTests(ctx *BuildContext) error {
	printInfo("Running tests...")
	args := []string{"test", "-race", "./..."}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	return run(ctx, exec.Command("go", args...))
}

func clean(ctx *BuildContext) error {
	printInfo("Cleaning build artifacts...")
	return os.RemoveAll(distDir)
}

// copyConfigFiles ships an example config next to the binaries when one exists.
func copyConfigFiles(ctx *BuildContext) error {
	for _, src := range []string{"configs/config.yaml", "config.yaml"} {
		data, err := os.ReadFile(src)
		if err != nil {
			continue
		}
		if err := os.MkdirAll(distDir, 0o755); err != nil {
			return err
		}
		dst := filepath.Join(distDir, "config.example.yaml")
		if ctx.Verbose {
			printInfo(fmt.Sprintf("Copying %s -> %s", src, dst))
		}
		return os.WriteFile(dst, data, 0o644)
	}
	printWarning("No config.yaml found; binaries will run on defaults and environment")
	return nil
}

func run(ctx *BuildContext, cmd *exec.Cmd) error {
	if ctx.Verbose {
		printInfo(strings.Join(cmd.Args, " "))
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", strings.Join(cmd.Args, " "), err)
	}
	return nil
}

func gitVersion() string {
	out, err := exec.Command("git", "describe", "--tags", "--always", "--dirty").Output()
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(string(out))
}

func showHelp() {
	fmt.Println("Build script for " + module)
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v] [-version=VERSION]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all        Build both commands for this platform (default)")
	fmt.Println("  dashboard  Build the dashboard server")
	fmt.Println("  report     Build the cohort-report CLI")
	fmt.Println("  test       Run go test -race ./...")
	fmt.Println("  clean      Remove dist/")
	fmt.Println("  release    Test, then cross-compile for " + strings.Join(platforms, ", "))
}
