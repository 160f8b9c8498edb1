package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/xmem.go/pkg/board"
	fx "github.com/robotalks/xmem.go/pkg/framework"
	"github.com/robotalks/xmem.go/pkg/l0/comm"
	"github.com/robotalks/xmem.go/pkg/l0/env"
	"github.com/robotalks/xmem.go/pkg/l0/mem"
	"github.com/robotalks/xmem.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/xmem.go/pkg/l1/comm/stream"
	l1env "github.com/robotalks/xmem.go/pkg/l1/env"
)

//go-build: CGO_ENABLED=0

var (
	echo  bool
	greet = "Hello xmem!"
)

func init() {
	env.SetupFlags()
	l1env.SetupFlags()
	flag.BoolVar(&echo, "echo", echo, "Echo completed messages back to the transport.")
	flag.StringVar(&greet, "greet", greet, "Greeting written to the transport on start when echo is on.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.NewConfig()
	profile := conf.MustProfile()
	fc := conf.MustFramerConfig()
	glog.Info(env.Banner("xmemd"))

	var arena mem.StaticArena
	report, err := profile.Sequence(board.NewSim(), &arena, conf.ProbeSize).Run()
	if err != nil {
		glog.Fatalf("boot: %v", err)
	}
	glog.Infof("heap %#.8x+%#x on %s", report.Base, report.Size, profile.Chip)
	glog.Infof("board %s console %s", profile.Name, profile.Console)

	transport, err := stream.Open(conf.Transport)
	if err != nil {
		glog.Fatalf("open %s: %v", conf.Transport, err)
	}

	link, err := comm.NewLink(transport, fc)
	if err != nil {
		glog.Fatalf("link: %v", err)
	}
	link.Receiver.Overwrite = conf.Overwrite
	if echo {
		link.Echo = transport
		if err := link.Greet(greet); err != nil {
			glog.Warningf("greet: %v", err)
		}
	}

	uplinks := l1env.NewConfig().MustNewUplinks(mqtt.Meta{
		Board:    profile.Name,
		Version:  env.Version,
		Memory:   fmt.Sprintf("%#.8x+%#x", report.Base, report.Size),
		Sentinel: conf.Sentinel,
		Console:  profile.Console.String(),
	})

	loop := fx.NewLoop()
	loop.Add(&comm.MessagePoster{Link: link}, uplinks)

	runner := fx.NewRunner().HandleSignals()
	runner.StopOnError = true
	receive := fx.RunnableFunc(func(ctx context.Context) error {
		defer runner.Stop()
		return fx.RunWithContextCloser(ctx, transport, func() error {
			return link.Run(ctx)
		})
	})
	if err := runner.Go(fx.NamedRun("link", receive), fx.NamedRun("loop", loop)).Wait(); err != nil {
		glog.Errorf("stopped: %v", err)
	}
}
