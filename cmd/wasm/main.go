//go:build js && wasm

package main

import (
	"syscall/js"
	"time"

	"github.com/notefield/notefield/backend-go/internal/engine"
)

var eng *engine.Engine

func main() {
	eng = engine.New(engine.Config{}, engine.Size{Width: 800, Height: 600}, engine.Listeners{})

	// Create the engine API object
	notefieldEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	notefieldEngine.Set("setViewport", js.FuncOf(setViewport))
	notefieldEngine.Set("pan", js.FuncOf(pan))
	notefieldEngine.Set("zoom", js.FuncOf(zoom))
	notefieldEngine.Set("setPosition", js.FuncOf(setPosition))
	notefieldEngine.Set("setZoom", js.FuncOf(setZoom))
	notefieldEngine.Set("lerpTo", js.FuncOf(lerpTo))
	notefieldEngine.Set("insertObject", js.FuncOf(insertObject))
	notefieldEngine.Set("updateObject", js.FuncOf(updateObject))
	notefieldEngine.Set("removeObject", js.FuncOf(removeObject))
	notefieldEngine.Set("clear", js.FuncOf(clear))
	notefieldEngine.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← backend) ---
	notefieldEngine.Set("visibleObjects", js.FuncOf(visibleObjects))
	notefieldEngine.Set("detailLevel", js.FuncOf(detailLevel))
	notefieldEngine.Set("cameraState", js.FuncOf(cameraState))
	notefieldEngine.Set("worldToScreen", js.FuncOf(worldToScreen))
	notefieldEngine.Set("screenToWorld", js.FuncOf(screenToWorld))
	notefieldEngine.Set("transformMatrix", js.FuncOf(transformMatrix))
	notefieldEngine.Set("isTransitioning", js.FuncOf(isTransitioning))

	// Register on global scope
	js.Global().Set("notefieldEngine", notefieldEngine)

	// Signal that WASM is ready
	js.Global().Set("notefieldWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Command Handlers ---

func setViewport(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.Camera().SetViewport(engine.Size{Width: args[0].Float(), Height: args[1].Float()})
	return nil
}

func pan(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.Camera().Pan(args[0].Float(), args[1].Float())
	return nil
}

func zoom(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.Camera().Zoom(args[0].Float(), args[1].Float(), args[2].Float())
	return nil
}

func setPosition(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.Camera().SetPosition(args[0].Float(), args[1].Float())
	return nil
}

func setZoom(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.Camera().SetZoom(args[0].Float())
	return nil
}

func lerpTo(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return nil
	}
	duration := time.Duration(args[3].Float() * float64(time.Millisecond))
	eng.Camera().LerpTo(args[0].Float(), args[1].Float(), args[2].Float(), duration)
	return nil
}

func insertObject(this js.Value, args []js.Value) interface{} {
	if len(args) < 5 {
		return js.ValueOf(map[string]interface{}{"error": "need id, x, y, width, height"})
	}
	obj := engine.SpatialObject{
		ID: args[0].String(),
		Bounds: engine.Rect{
			X:      args[1].Float(),
			Y:      args[2].Float(),
			Width:  args[3].Float(),
			Height: args[4].Float(),
		},
	}
	if err := eng.InsertObject(obj); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func updateObject(this js.Value, args []js.Value) interface{} {
	if len(args) < 5 {
		return js.ValueOf(map[string]interface{}{"error": "need id, x, y, width, height"})
	}
	obj := engine.SpatialObject{
		ID: args[0].String(),
		Bounds: engine.Rect{
			X:      args[1].Float(),
			Y:      args[2].Float(),
			Width:  args[3].Float(),
			Height: args[4].Float(),
		},
	}
	if err := eng.UpdateObject(obj); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func removeObject(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "need id"})
	}
	if err := eng.RemoveObject(args[0].String()); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func clear(this js.Value, args []js.Value) interface{} {
	eng.Clear()
	return nil
}

func tick(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Tick(time.Now()))
}

// --- Query Handlers ---

func visibleObjects(this js.Value, args []js.Value) interface{} {
	ids := eng.VisibleObjects()
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return js.ValueOf(out)
}

func detailLevel(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.DetailLevel().String())
}

func cameraState(this js.Value, args []js.Value) interface{} {
	state := eng.Camera().State()
	return js.ValueOf(map[string]interface{}{
		"x":     state.X,
		"y":     state.Y,
		"scale": state.Scale,
	})
}

func worldToScreen(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	p := engine.WorldToScreen(
		engine.Point{X: args[0].Float(), Y: args[1].Float()},
		eng.Camera().State(), eng.Camera().Viewport())
	return js.ValueOf(map[string]interface{}{"x": p.X, "y": p.Y})
}

func screenToWorld(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	p, err := engine.ScreenToWorld(
		engine.Point{X: args[0].Float(), Y: args[1].Float()},
		eng.Camera().State(), eng.Camera().Viewport())
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"x": p.X, "y": p.Y})
}

func transformMatrix(this js.Value, args []js.Value) interface{} {
	tf := engine.TransformMatrix(eng.Camera().State(), eng.Camera().Viewport())
	return js.ValueOf(map[string]interface{}{
		"scale":      tf.Scale,
		"translateX": tf.TranslateX,
		"translateY": tf.TranslateY,
	})
}

func isTransitioning(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Camera().Transitioning())
}
