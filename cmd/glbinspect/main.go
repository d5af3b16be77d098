// Command glbinspect loads glTF and GLB assets and prints what the loader produced.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/Carmen-Shannon/oxy-glb/engine/loader"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/Carmen-Shannon/oxy-glb/internal/config"
	"github.com/Carmen-Shannon/oxy-glb/internal/logger"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
)

var (
	flagDump = flag.Bool("dump", false, "Dump the full bundle instead of a summary")
	flagTree = flag.Bool("tree", false, "Print the node hierarchy of the default scene")
)

func main() {
	config.ParseFlags()
	os.Exit(run())
}

func run() int {
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: glbinspect [flags] <file.glb|file.gltf|url>...")
		flag.PrintDefaults()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()

	log := logger.Named("glbinspect")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	l := loader.NewLoader(loader.BackendTypeGLTF,
		loader.WithConfig(cfg),
		loader.WithLogger(logger.Named("loader")),
	)
	defer l.Close()

	failed := false
	for _, location := range flag.Args() {
		b, err := l.Load(ctx, location)
		if err != nil {
			log.Error("load failed", zap.String("location", location), zap.Error(err))
			failed = true
			continue
		}

		switch {
		case *flagDump:
			spew.Fdump(os.Stdout, b)
		default:
			summarize(os.Stdout, b)
			if *flagTree {
				printTree(os.Stdout, b.Nodes(), b.Root(), 0)
			}
		}
	}
	if failed {
		return 1
	}
	return 0
}

func summarize(w io.Writer, b model.ResourceBundle) {
	fmt.Fprintf(w, "%s\n", b.Name())
	fmt.Fprintf(w, "  nodes:      %d (%d scenes, default %d)\n", len(b.Nodes()), len(b.Scenes()), b.Scene())

	meshes, vertices := 0, 0
	for _, r := range b.Renders() {
		for _, m := range r.Meshes {
			meshes++
			vertices += m.VertexBuffer.Count
		}
	}
	fmt.Fprintf(w, "  renders:    %d (%d meshes, %d vertices)\n", len(b.Renders()), meshes, vertices)
	fmt.Fprintf(w, "  textures:   %d\n", len(b.Textures()))

	fmt.Fprintf(w, "  materials:  %d\n", len(b.Materials()))
	for _, m := range b.Materials() {
		if ext := m.Extensions(); len(ext) > 0 {
			fmt.Fprintf(w, "    %s [%s]\n", m.Name(), strings.Join(ext, ", "))
		} else {
			fmt.Fprintf(w, "    %s\n", m.Name())
		}
	}

	fmt.Fprintf(w, "  animations: %d\n", len(b.Animations()))
	for _, a := range b.Animations() {
		fmt.Fprintf(w, "    %s %.3fs (%d curves)\n", a.Name, a.Duration, len(a.Curves))
	}

	fmt.Fprintf(w, "  skins:      %d\n", len(b.Skins()))
	fmt.Fprintf(w, "  lights:     %d\n", len(b.Lights()))
	fmt.Fprintf(w, "  cameras:    %d\n", len(b.Cameras()))
	if v := b.Variants(); len(v) > 0 {
		names := make([]string, len(v))
		for name, i := range v {
			names[i] = name
		}
		fmt.Fprintf(w, "  variants:   %s\n", strings.Join(names, ", "))
	}
}

func printTree(w io.Writer, nodes []model.Node, idx, depth int) {
	if idx < 0 || idx >= len(nodes) {
		return
	}
	n := nodes[idx]
	var tags []string
	if n.Render >= 0 {
		tags = append(tags, fmt.Sprintf("render=%d", n.Render))
	}
	if n.Skin >= 0 {
		tags = append(tags, fmt.Sprintf("skin=%d", n.Skin))
	}
	if n.Camera >= 0 {
		tags = append(tags, fmt.Sprintf("camera=%d", n.Camera))
	}
	if n.Light >= 0 {
		tags = append(tags, fmt.Sprintf("light=%d", n.Light))
	}
	fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", depth), n.Name, strings.Join(tags, " "))
	for _, c := range n.Children {
		printTree(w, nodes, c, depth+1)
	}
}
