package renderer

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/pellucidar/keel/engine/core"
)

// ShaderWatcher watches the shader directory for rebuilt .spv files. The
// watcher goroutine only posts shader names on a channel; the render loop
// drains it at frame boundaries, keeping pipeline rebuilds single-threaded.
type ShaderWatcher struct {
	watcher *fsnotify.Watcher
	changed chan string
	done    chan struct{}
}

func NewShaderWatcher(shaderDir string) (*ShaderWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(shaderDir); err != nil {
		watcher.Close()
		return nil, err
	}

	sw := &ShaderWatcher{
		watcher: watcher,
		changed: make(chan string, 64),
		done:    make(chan struct{}),
	}
	go sw.run()
	core.LogInfo("shader watcher: watching %s", shaderDir)
	return sw, nil
}

func (sw *ShaderWatcher) run() {
	for {
		select {
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Ext(event.Name) != ".spv" {
				continue
			}
			name := strings.TrimSuffix(filepath.Base(event.Name), ".spv")
			select {
			case sw.changed <- name:
			default:
				// channel full, the shader will be picked up by a later write
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			core.LogWarn("shader watcher: %s", err)
		case <-sw.done:
			return
		}
	}
}

// Drain returns the shaders changed since the last call. Never blocks.
func (sw *ShaderWatcher) Drain() []string {
	var out []string
	for {
		select {
		case name := <-sw.changed:
			out = append(out, name)
		default:
			return out
		}
	}
}

func (sw *ShaderWatcher) Close() {
	close(sw.done)
	sw.watcher.Close()
}
