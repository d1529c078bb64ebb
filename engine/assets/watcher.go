package assets

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/helios/engine/core"
)

// ShaderWatcher watches a directory of compiled shaders and fires
// EVENT_CODE_SHADERS_RELOADED when a .spv file changes on disk. The engine
// picks the event up between frames and rebuilds its pipelines.
type ShaderWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewShaderWatcher(dir string) (*ShaderWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		core.LogError("failed to create shader watcher: %s", err)
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		core.LogError("failed to watch shader directory `%s`: %s", dir, err)
		return nil, err
	}

	sw := &ShaderWatcher{
		watcher: watcher,
		done:    make(chan struct{}),
	}
	go sw.run()

	core.LogInfo("Watching `%s` for shader changes.", dir)
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
			if strings.ToLower(filepath.Ext(event.Name)) != ".spv" {
				continue
			}
			core.LogInfo("Shader `%s` changed on disk.", filepath.Base(event.Name))
			core.EventFire(core.EVENT_CODE_SHADERS_RELOADED, sw, core.EventContext{})
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			core.LogWarn("shader watcher error: %s", err)
		case <-sw.done:
			return
		}
	}
}

func (sw *ShaderWatcher) Close() {
	close(sw.done)
	sw.watcher.Close()
}
