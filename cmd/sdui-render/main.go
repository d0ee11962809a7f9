package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/AaronLay10/SentientUI/internal/components"
	"github.com/AaronLay10/SentientUI/internal/dispatch"
	"github.com/AaronLay10/SentientUI/internal/render"
	"github.com/AaronLay10/SentientUI/internal/screen"
	"github.com/AaronLay10/SentientUI/internal/vdom"
	"github.com/AaronLay10/SentientUI/internal/version"
)

type LogLine struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// logEvent writes one JSON log line to stderr; stdout carries the render.
func logEvent(level, event, msg string, fields map[string]interface{}) {
	line := LogLine{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Event:     event,
		Message:   msg,
		Fields:    fields,
	}
	b, _ := json.Marshal(line)
	fmt.Fprintln(os.Stderr, string(b))
}

func main() {
	format := flag.String("format", "html", "output format: html or json")
	strict := flag.Bool("strict", false, "validate literal props against component schemas")
	accept := flag.String("accept", screen.DefaultAccept, "accepted protocol version range")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: sdui-render [-format html|json] [-strict] screen.json\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	hostname, _ := os.Hostname()
	logEvent("info", "system.startup", "sdui-render starting", map[string]interface{}{
		"service":  "sdui-render",
		"hostname": hostname,
		"pid":      os.Getpid(),
		"version":  version.Version,
		"protocol": version.Protocol,
	})

	if err := run(os.Stdout, flag.Arg(0), *format, *accept, *strict); err != nil {
		logEvent("error", "system.error", err.Error(), map[string]interface{}{
			"file": flag.Arg(0),
		})
		os.Exit(1)
	}
}

// run renders the screen file at path to w. Callbacks are bound to a
// dispatcher without handlers, so they show up in the output but do nothing.
func run(w io.Writer, path, format, accept string, strict bool) error {
	if format != "html" && format != "json" {
		return fmt.Errorf("unsupported format %q", format)
	}

	validator, err := screen.NewValidator()
	if err != nil {
		return err
	}
	env, err := screen.Load(path, validator)
	if err != nil {
		return err
	}
	constraint, err := screen.ParseAccept(accept)
	if err != nil {
		return err
	}
	if err := screen.CheckProtocol(constraint, env.ProtocolVersion); err != nil {
		return err
	}

	reg, err := components.Library()
	if err != nil {
		return err
	}

	ctx := context.Background()
	fn := dispatch.New(dispatch.Handlers{}).Func()
	nodes := render.Screen(ctx, reg, &env.Screen, render.Options{
		Dispatch:       fn,
		Fallback:       components.Fallback,
		SectionWrapper: components.SectionWrapper(ctx, fn),
		StrictProps:    strict,
	})

	if format == "json" {
		if nodes == nil {
			nodes = []*vdom.VNode{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(nodes)
	}
	if err := vdom.RenderHTML(w, nodes...); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w)
	return err
}
