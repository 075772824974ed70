package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/dshills/highlighter/internal/app"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("highlighter"))
	if err != nil {
		t.Fatalf("kong.New error: %v", err)
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		t.Fatalf("Parse(%v) error: %v", args, err)
	}
	return &cli, ctx
}

func TestParse(t *testing.T) {
	dir := t.TempDir()
	text := writeFile(t, dir, "doc.txt", "hello")

	cli, ctx := parse(t, "-c", "conf.toml", "render", text, "-o", "out.png")
	if ctx.Command() != "render <text>" {
		t.Errorf("Command() = %q", ctx.Command())
	}
	if cli.Render.Width != 480 {
		t.Errorf("Width = %g, want default 480", cli.Render.Width)
	}
	if !strings.HasSuffix(cli.Config, "conf.toml") {
		t.Errorf("Config = %q", cli.Config)
	}

	cli, _ = parse(t, "select", text, "1", "4", "--fill", "teal", "--fill-opacity", "0.5")
	if cli.Select.Start != 1 || cli.Select.End != 4 || cli.Select.Fill != "teal" {
		t.Errorf("select = %+v", cli.Select)
	}
	if cli.Select.FillOpacity == nil || *cli.Select.FillOpacity != 0.5 {
		t.Errorf("FillOpacity = %v, want 0.5", cli.Select.FillOpacity)
	}
	if cli.Select.StrokeWidth != nil {
		t.Errorf("StrokeWidth = %v, want unset", *cli.Select.StrokeWidth)
	}
}

func TestSelectRenderHit(t *testing.T) {
	dir := t.TempDir()
	text := writeFile(t, dir, "doc.txt", "hello world")
	rs := filepath.Join(dir, "ranges.json")
	var out bytes.Buffer
	g := &Globals{LogLevel: "error", stdout: &out}

	sel := &SelectCmd{Text: text, Start: 0, End: 5, Width: 200, ID: "greeting", Append: rs}
	if err := sel.Run(g); err != nil {
		t.Fatalf("select: %v", err)
	}
	if !strings.Contains(out.String(), `"greeting"`) {
		t.Errorf("select output = %q", out.String())
	}
	saved, err := app.LoadRanges(rs)
	if err != nil || len(saved) != 1 || saved[0].Text != "hello" {
		t.Fatalf("appended ranges = %+v, %v", saved, err)
	}

	// Selecting again with the same id replaces the descriptor.
	again := &SelectCmd{Text: text, Start: 6, End: 11, Width: 200, ID: "greeting", Append: rs}
	if err := again.Run(g); err != nil {
		t.Fatalf("select again: %v", err)
	}
	saved, err = app.LoadRanges(rs)
	if err != nil || len(saved) != 1 || saved[0].Text != "world" {
		t.Fatalf("ranges after reselect = %+v, %v", saved, err)
	}
	if err := (&SelectCmd{Text: text, Start: 0, End: 5, Width: 200, ID: "greeting", Append: rs}).Run(g); err != nil {
		t.Fatalf("select restore: %v", err)
	}

	out.Reset()
	png := filepath.Join(dir, "out.png")
	render := &RenderCmd{Text: text, Ranges: rs, Out: png, Width: 200}
	if err := render.Run(g); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out.String(), "1 highlights") {
		t.Errorf("render output = %q", out.String())
	}
	if _, err := os.Stat(png); err != nil {
		t.Errorf("output not written: %v", err)
	}

	out.Reset()
	hit := &HitCmd{Text: text, Ranges: rs, Width: 200, X: 10, Y: 5}
	if err := hit.Run(g); err != nil {
		t.Fatalf("hit: %v", err)
	}
	if strings.TrimSpace(out.String()) != "greeting" {
		t.Errorf("hit output = %q, want greeting", out.String())
	}
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	if err := (&VersionCmd{}).Run(&Globals{stdout: &out}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "highlighter dev") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hl.log")
	g := &Globals{LogLevel: "debug", LogFile: path}
	_, closeLog, err := g.open(os.Stderr)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "config resolved") {
		t.Errorf("log file = %q", data)
	}
}
