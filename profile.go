package main

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/golang/glog"
)

const profileTimeFormat = "20060102_150405"

// Profiler is an on-demand profiling session toggled by SIGUSR2.
type Profiler struct {
	dataDir string
	closers []func()
}

// StartProfiler begins collecting cpu and heap profiles into dataDir.
// Call Stop to flush them.
func StartProfiler(dataDir string) *Profiler {
	p := &Profiler{dataDir: dataDir}

	if f, err := os.Create(p.dumpFile("cpu")); err != nil {
		glog.Errorf("pprof: create cpu profile: %v", err)
	} else if err := pprof.StartCPUProfile(f); err != nil {
		glog.Errorf("pprof: start cpu profile: %v", err)
		f.Close()
	} else {
		glog.Infof("pprof: cpu profiling enabled, %s", f.Name())
		p.closers = append(p.closers, func() {
			pprof.StopCPUProfile()
			f.Close()
		})
	}

	if f, err := os.Create(p.dumpFile("mem")); err != nil {
		glog.Errorf("pprof: create heap profile: %v", err)
	} else {
		old := runtime.MemProfileRate
		runtime.MemProfileRate = 4096
		glog.Infof("pprof: heap profiling enabled, %s", f.Name())
		p.closers = append(p.closers, func() {
			_ = pprof.Lookup("heap").WriteTo(f, 0)
			f.Close()
			runtime.MemProfileRate = old
		})
	}

	return p
}

// Stop flushes and closes the collected profiles.
func (p *Profiler) Stop() {
	for _, closer := range p.closers {
		closer()
	}
	p.closers = nil
	glog.Infof("pprof: profiling stopped")
}

// dumpGoroutines writes the goroutine profile, triggered by SIGUSR1.
func (p *Profiler) dumpGoroutines() {
	name := path.Join(p.dataDir, fmt.Sprintf("goroutines-%s.dump", time.Now().Format(profileTimeFormat)))
	f, err := os.Create(name)
	if err != nil {
		glog.Errorf("pprof: dump goroutines: %v", err)
		return
	}
	defer f.Close()
	if err := pprof.Lookup("goroutine").WriteTo(f, 2); err != nil {
		glog.Errorf("pprof: write goroutine profile to %s: %v", name, err)
	}
	glog.Infof("pprof: goroutine profile dumped to %s", name)
}

func (p *Profiler) dumpFile(kind string) string {
	return path.Join(p.dataDir, fmt.Sprintf("%s-%s.pprof", kind, time.Now().Format(profileTimeFormat)))
}
