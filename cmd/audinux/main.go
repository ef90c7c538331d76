package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/audinux/audinux"
)

const (
	windowW    = 1100
	windowH    = 720
	minWindowW = 980
	minWindowH = 680

	textScale = 2
	charW     = 7 * textScale
	lineH     = 14 * textScale

	// Height of one waveform line row, label gutter included.
	waveRowH = 52
)

var (
	bgColor     = color.RGBA{192, 192, 192, 255}
	panelColor  = color.RGBA{192, 192, 192, 255}
	borderColor = color.RGBA{128, 128, 128, 255}
	buttonColor = color.RGBA{192, 192, 192, 255}

	highlightColor = color.RGBA{0, 0, 128, 255}

	// 3D bevel colors for old-school embossed look.
	bevelLight  = color.RGBA{255, 255, 255, 255}
	bevelDarker = color.RGBA{64, 64, 64, 255}

	// Sunken panel interior.
	sunkenBgColor = color.RGBA{24, 24, 32, 255}

	sliderFillColor = color.RGBA{0, 0, 128, 255}

	waveColor      = color.RGBA{80, 200, 255, 220}
	wavePendColor  = color.RGBA{60, 66, 84, 255}
	playheadColor  = color.RGBA{255, 80, 80, 255}
	markerTickCol  = color.RGBA{255, 210, 80, 255}
	loopRegionCol  = color.RGBA{0, 120, 60, 90}
	waveCenterLine = color.RGBA{40, 44, 58, 100}
)

type navEntry struct {
	name  string
	path  string
	isDir bool
}

type game struct {
	session *audinux.Session
	events  <-chan audinux.SessionEvent

	volume float64 // 0..1 slider position
	rate   float64

	draggingSlider int // 0=none, 1=volume, 2=rate

	waveScroll int

	status    string
	statusErr bool

	cwd          string
	nav          []navEntry
	navScroll    int
	markerScroll int

	loadedPath string
	loopAnchor int64 // -1 when unarmed

	frameTick        int
	lastNavPath      string
	lastNavClickTick int

	textCache map[string]*ebiten.Image
	viewW     int
	viewH     int
}

func newGame(initialPath string) (*game, error) {
	s := audinux.NewSession()

	cwd := s.LastDir()
	if cwd == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}
	if initialPath != "" {
		cwd = filepath.Dir(initialPath)
	}

	g := &game{
		session:    s,
		events:     s.Events(),
		volume:     1.0,
		rate:       1.0,
		status:     "Ready",
		cwd:        cwd,
		loopAnchor: -1,
		textCache:  make(map[string]*ebiten.Image, 1024),
		viewW:      windowW,
		viewH:      windowH,
	}
	if err := g.refreshNav(); err != nil {
		g.setError(err.Error())
	}
	if initialPath != "" {
		if err := g.loadFile(initialPath); err != nil {
			g.setError(err.Error())
		}
	}
	return g, nil
}

func (g *game) Update() error {
	g.frameTick++
	g.pollEvents()
	g.handleKeys()
	g.handleMouse()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)

	l := g.layoutRects()

	g.drawSunkenPanel(screen, l.nav)
	g.drawSunkenPanel(screen, l.markers)
	g.drawDarkPanel(screen, l.wave)
	g.drawButton(screen, l.play, g.playButtonLabel(), buttonColor)
	g.drawButton(screen, l.loop, g.loopButtonLabel(), buttonColor)
	g.drawButton(screen, l.zoomOut, "-", buttonColor)
	g.drawButton(screen, l.zoomIn, "+", buttonColor)
	g.drawRateSlider(screen, l.rate)
	g.drawVolumeSlider(screen, l.volume)
	g.drawSunkenPanel(screen, l.status)

	g.drawText(screen, "Files", l.nav.Min.X+8, l.nav.Min.Y+8)
	g.drawText(screen, "Markers", l.markers.Min.X+8, l.markers.Min.Y+8)

	g.drawNavigator(screen, l.nav)
	g.drawMarkers(screen, l.markers)
	g.drawWave(screen, l.wave)
	g.drawStatus(screen, l.status)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	if outsideW < minWindowW {
		outsideW = minWindowW
	}
	if outsideH < minWindowH {
		outsideH = minWindowH
	}
	g.viewW = outsideW
	g.viewH = outsideH
	return outsideW, outsideH
}

func (g *game) Close() { g.session.Close() }

func (g *game) pollEvents() {
	for {
		select {
		case ev, ok := <-g.events:
			if !ok {
				return
			}
			switch ev.Kind {
			case audinux.EventLoopSeek:
				if !g.statusErr {
					g.status = "Loop: back to " + g.labelFor(ev.PositionMs)
				}
			case audinux.EventPlayhead:
				g.followPlayhead(ev.Line)
			}
		default:
			return
		}
	}
}

// followPlayhead keeps the playhead line inside the visible window.
func (g *game) followPlayhead(line int) {
	rows := g.waveRows(g.layoutRects().wave)
	if rows < 1 {
		return
	}
	if line < g.waveScroll {
		g.waveScroll = line
	}
	if line >= g.waveScroll+rows {
		g.waveScroll = line - rows + 1
	}
}

func (g *game) handleKeys() {
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl)
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.session.Toggle()
		g.setStatus(g.playButtonLabel())
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.session.Stop()
		g.loadedPath = ""
		g.loopAnchor = -1
		g.setStatus("Stopped")
	case inpututil.IsKeyJustPressed(ebiten.KeyZ), inpututil.IsKeyJustPressed(ebiten.KeyEqual):
		g.session.ZoomIn()
		g.setStatus(fmt.Sprintf("Zoom: %.2fx", g.session.Zoom()))
	case inpututil.IsKeyJustPressed(ebiten.KeyX), inpututil.IsKeyJustPressed(ebiten.KeyMinus):
		g.session.ZoomOut()
		g.setStatus(fmt.Sprintf("Zoom: %.2fx", g.session.Zoom()))
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		if err := g.session.AddMarker(""); err != nil {
			g.setError(err.Error())
		} else {
			g.setStatus("Marker added")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		g.toggleLoop()
	case inpututil.IsKeyJustPressed(ebiten.KeyPeriod):
		if g.session.JumpToNextMarker() {
			g.setStatus("Next marker")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyComma):
		if g.session.JumpToPrevMarker() {
			g.setStatus("Previous marker")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft), inpututil.IsKeyJustPressed(ebiten.KeyRight):
		delta := int64(5000)
		if ctrl {
			delta = 30000
		} else if shift {
			delta = 1000
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyLeft) {
			delta = -delta
		}
		g.session.SeekBy(delta)
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyUp):
		g.session.NudgeRate(0.05)
		g.rate = g.session.Playhead().Rate
		g.setStatus(fmt.Sprintf("Rate: %.2fx", g.rate))
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyDown):
		g.session.NudgeRate(-0.05)
		g.rate = g.session.Playhead().Rate
		g.setStatus(fmt.Sprintf("Rate: %.2fx", g.rate))
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		if err := g.session.NextTrack(); err != nil {
			g.setError(err.Error())
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		if err := g.session.PrevTrack(); err != nil {
			g.setError(err.Error())
		}
	}
}

// toggleLoop walks the A-B cycle: first press arms the start point,
// second installs the loop, third clears it.
func (g *game) toggleLoop() {
	if _, active := g.session.Loop(); active {
		g.session.ClearLoop()
		g.loopAnchor = -1
		g.setStatus("Loop cleared")
		return
	}
	pos := g.session.Playhead().PositionMs
	if g.loopAnchor < 0 {
		g.loopAnchor = pos
		g.setStatus("Loop start: " + g.labelFor(pos))
		return
	}
	if err := g.session.LoopBetween(g.loopAnchor, pos); err != nil {
		g.setError(err.Error())
		return
	}
	g.loopAnchor = -1
	r, _ := g.session.Loop()
	g.setStatus("Loop: " + g.labelFor(r.StartMs) + " - " + g.labelFor(r.EndMs))
}

func (g *game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	l := g.layoutRects()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		switch {
		case pointInRect(mx, my, l.play):
			g.session.Toggle()
			return
		case pointInRect(mx, my, l.loop):
			g.toggleLoop()
			return
		case pointInRect(mx, my, l.zoomIn):
			g.session.ZoomIn()
			g.setStatus(fmt.Sprintf("Zoom: %.2fx", g.session.Zoom()))
			return
		case pointInRect(mx, my, l.rate):
			g.draggingSlider = 2
			g.updateRateFromMouse(mx, l.rate)
			return
		case pointInRect(mx, my, l.zoomOut):
			g.session.ZoomOut()
			g.setStatus(fmt.Sprintf("Zoom: %.2fx", g.session.Zoom()))
			return
		case pointInRect(mx, my, l.volume):
			g.draggingSlider = 1
			g.updateVolumeFromMouse(mx, l.volume)
			return
		case pointInRect(mx, my, l.nav):
			g.clickNavigator(my, l.nav)
			return
		case pointInRect(mx, my, l.markers):
			g.clickMarkers(my, l.markers)
			return
		case pointInRect(mx, my, l.wave):
			g.clickWave(mx, my, l.wave)
			return
		}
	}
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.draggingSlider = 0
	}
	if g.draggingSlider == 1 {
		g.updateVolumeFromMouse(mx, l.volume)
	}
	if g.draggingSlider == 2 {
		g.updateRateFromMouse(mx, l.rate)
	}

	_, wy := ebiten.Wheel()
	if wy == 0 {
		return
	}
	if pointInRect(mx, my, l.nav) {
		g.navScroll -= int(wy * 2)
		if g.navScroll < 0 {
			g.navScroll = 0
		}
	}
	if pointInRect(mx, my, l.markers) {
		g.markerScroll -= int(wy * 2)
		if g.markerScroll < 0 {
			g.markerScroll = 0
		}
	}
	if pointInRect(mx, my, l.wave) {
		g.waveScroll -= int(wy)
		if g.waveScroll < 0 {
			g.waveScroll = 0
		}
		if maxS := g.session.TotalLines() - 1; g.waveScroll > maxS && maxS >= 0 {
			g.waveScroll = maxS
		}
	}
}

type uiLayout struct {
	nav, markers, wave          image.Rectangle
	play, loop, zoomOut, zoomIn image.Rectangle
	rate, volume, status        image.Rectangle
}

func (g *game) layoutRects() uiLayout {
	w := g.viewW
	h := g.viewH
	if w < minWindowW {
		w = minWindowW
	}
	if h < minWindowH {
		h = minWindowH
	}

	pad := 20
	rowH := 44
	statusH := 40

	// Bottom: status row, then controls row above it.
	statusTop := h - pad - statusH
	controlsTop := statusTop - 8 - rowH

	// Left column: nav + markers.
	navW := 280
	markersH := 200
	navBottom := controlsTop - 12
	markersTop := navBottom - markersH
	navRect := image.Rect(pad, pad, pad+navW, markersTop-8)
	markersRect := image.Rect(pad, markersTop, pad+navW, navBottom)

	// Right column: waveform lines.
	rightX := navRect.Max.X + 12
	rightW := w - rightX - pad
	if rightW < 320 {
		rightW = 320
	}
	waveRect := image.Rect(rightX, pad, rightX+rightW, controlsTop-12)

	// Controls row.
	playRect := image.Rect(pad, controlsTop, pad+130, controlsTop+rowH)
	loopRect := image.Rect(pad+142, controlsTop, pad+272, controlsTop+rowH)
	zoomOutRect := image.Rect(pad+284, controlsTop, pad+328, controlsTop+rowH)
	zoomInRect := image.Rect(pad+340, controlsTop, pad+384, controlsTop+rowH)
	rateRect := image.Rect(pad+396, controlsTop, pad+636, controlsTop+rowH)
	volRight := pad + 648 + 260
	if volRight > w-pad {
		volRight = w - pad
	}
	volumeRect := image.Rect(pad+648, controlsTop, volRight, controlsTop+rowH)

	// Status row.
	statusRect := image.Rect(pad, statusTop, w-pad, statusTop+statusH)

	return uiLayout{
		nav: navRect, markers: markersRect, wave: waveRect,
		play: playRect, loop: loopRect, zoomOut: zoomOutRect, zoomIn: zoomInRect,
		rate: rateRect, volume: volumeRect, status: statusRect,
	}
}

func (g *game) waveRows(rect image.Rectangle) int {
	rows := (rect.Dy() - 16) / waveRowH
	if rows < 1 {
		rows = 1
	}
	return rows
}

// waveInner returns the drawable area of the lines panel: label gutter on
// the left, scrollbar on the right.
func waveInner(rect image.Rectangle) image.Rectangle {
	return image.Rect(rect.Min.X+8+9*charW, rect.Min.Y+8, rect.Max.X-20, rect.Max.Y-8)
}

func (g *game) drawWave(screen *ebiten.Image, rect image.Rectangle) {
	total := g.session.TotalLines()
	if total == 0 {
		g.drawText(screen, "Open an audio file to see its waveform.", rect.Min.X+12, rect.Min.Y+12)
		return
	}

	rows := g.waveRows(rect)
	if maxS := total - 1; g.waveScroll > maxS {
		g.waveScroll = maxS
	}

	inner := waveInner(rect)
	resolution := inner.Dx() / 2
	if resolution < 100 {
		resolution = 100
	}

	ph := g.session.Playhead()
	playLine := g.session.LineAt(ph.PositionMs)
	loop, loopActive := g.session.Loop()
	markers := g.session.Markers()

	lines := g.session.VisibleLines(g.waveScroll, rows, resolution)
	for _, ln := range lines {
		row := ln.Index - g.waveScroll
		if row < 0 || row >= rows {
			continue
		}
		top := inner.Min.Y + row*waveRowH
		rowRect := image.Rect(inner.Min.X, top, inner.Max.X, top+waveRowH-6)

		g.drawText(screen, ln.StartLabel, rect.Min.X+8, top+(rowRect.Dy()-lineH)/2)

		if loopActive {
			g.shadeTimeSpan(screen, rowRect, ln, loop.StartMs, loop.EndMs, loopRegionCol)
		}
		g.drawEnvelope(screen, rowRect, ln)
		for _, m := range markers {
			if m.Ms >= ln.StartMs && m.Ms < ln.EndMs {
				x := timeToX(rowRect, ln, m.Ms)
				ebitenutil.DrawRect(screen, float64(x), float64(rowRect.Min.Y), 2, float64(rowRect.Dy()), markerTickCol)
			}
		}
		if ln.Index == playLine && ph.PositionMs >= ln.StartMs && ph.PositionMs < ln.EndMs {
			x := timeToX(rowRect, ln, ph.PositionMs)
			ebitenutil.DrawRect(screen, float64(x), float64(rowRect.Min.Y), 2, float64(rowRect.Dy()), playheadColor)
		}
	}

	g.drawWaveScrollbar(screen, rect, rows, total)
}

// drawEnvelope renders one line's min/max columns, or a flat placeholder
// when the decode has not landed yet.
func (g *game) drawEnvelope(screen *ebiten.Image, rowRect image.Rectangle, ln audinux.LineView) {
	midY := rowRect.Min.Y + rowRect.Dy()/2
	half := float64(rowRect.Dy())/2 - 2

	ebitenutil.DrawRect(screen, float64(rowRect.Min.X), float64(midY), float64(rowRect.Dx()), 1, waveCenterLine)

	if len(ln.Mins) == 0 {
		ebitenutil.DrawRect(screen, float64(rowRect.Min.X), float64(midY-1), float64(rowRect.Dx()), 2, wavePendColor)
		return
	}
	n := len(ln.Mins)
	for px := 0; px < rowRect.Dx(); px++ {
		i := px * n / rowRect.Dx()
		lo := clamp(ln.Mins[i], -1, 1)
		hi := clamp(ln.Maxs[i], -1, 1)
		y0 := float64(midY) - hi*half
		y1 := float64(midY) - lo*half
		if y1-y0 < 1 {
			y1 = y0 + 1
		}
		ebitenutil.DrawRect(screen, float64(rowRect.Min.X+px), y0, 1, y1-y0, waveColor)
	}
}

// shadeTimeSpan fills the part of a row covered by [startMs, endMs).
func (g *game) shadeTimeSpan(screen *ebiten.Image, rowRect image.Rectangle, ln audinux.LineView, startMs, endMs int64, col color.Color) {
	if endMs <= ln.StartMs || startMs >= ln.EndMs {
		return
	}
	x0 := rowRect.Min.X
	if startMs > ln.StartMs {
		x0 = timeToX(rowRect, ln, startMs)
	}
	x1 := rowRect.Max.X
	if endMs < ln.EndMs {
		x1 = timeToX(rowRect, ln, endMs)
	}
	if x1 > x0 {
		ebitenutil.DrawRect(screen, float64(x0), float64(rowRect.Min.Y), float64(x1-x0), float64(rowRect.Dy()), col)
	}
}

func timeToX(rowRect image.Rectangle, ln audinux.LineView, ms int64) int {
	span := ln.EndMs - ln.StartMs
	if span <= 0 {
		return rowRect.Min.X
	}
	return rowRect.Min.X + int(int64(rowRect.Dx())*(ms-ln.StartMs)/span)
}

func (g *game) drawWaveScrollbar(screen *ebiten.Image, rect image.Rectangle, rows, total int) {
	trackX := rect.Max.X - 14
	trackY := rect.Min.Y + 8
	trackH := rect.Dy() - 16
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), 6, float64(trackH), bevelDarker)

	if total <= rows {
		return
	}
	maxScroll := total - rows
	thumbH := max(lineH, trackH*rows/total)
	thumbMaxY := trackH - thumbH
	thumbY := trackY
	if thumbMaxY > 0 && maxScroll > 0 {
		thumbY += thumbMaxY * g.waveScroll / maxScroll
	}
	thumbRect := image.Rect(trackX, thumbY, trackX+6, thumbY+thumbH)
	ebitenutil.DrawRect(screen, float64(trackX), float64(thumbY), 6, float64(thumbH), panelColor)
	drawBorder(screen, thumbRect)
}

func (g *game) clickWave(mx, my int, rect image.Rectangle) {
	total := g.session.TotalLines()
	if total == 0 {
		return
	}
	trackX := rect.Max.X - 16
	if mx >= trackX {
		rows := g.waveRows(rect)
		if total <= rows {
			return
		}
		trackY := rect.Min.Y + 8
		trackH := rect.Dy() - 16
		pos := clamp(float64(my-trackY), 0, float64(trackH))
		g.waveScroll = int(pos / float64(trackH) * float64(total-rows))
		return
	}

	inner := waveInner(rect)
	row := (my - inner.Min.Y) / waveRowH
	idx := g.waveScroll + row
	if row < 0 || idx >= total {
		return
	}
	ln, ok := g.session.Line(idx, 100)
	if !ok {
		return
	}
	rowRect := image.Rect(inner.Min.X, inner.Min.Y+row*waveRowH, inner.Max.X, inner.Min.Y+row*waveRowH+waveRowH-6)
	if rowRect.Dx() <= 0 || mx < rowRect.Min.X {
		return
	}
	frac := clamp(float64(mx-rowRect.Min.X)/float64(rowRect.Dx()), 0, 1)
	ms := ln.StartMs + int64(frac*float64(ln.EndMs-ln.StartMs))
	g.session.SeekMs(ms)
	g.setStatus("Seek: " + g.labelFor(ms))
}

func (g *game) drawNavigator(screen *ebiten.Image, rect image.Rectangle) {
	label := g.cwd
	if g.loadedPath != "" {
		label = g.cwd + "  [" + filepath.Base(g.loadedPath) + "]"
	}
	maxChars := max(8, (rect.Dx()-16)/charW)
	g.drawText(screen, shortenMiddle(label, maxChars), rect.Min.X+8, rect.Min.Y+8+lineH)

	top := rect.Min.Y + 12 + (lineH * 2)
	maxLines := (rect.Dy() - (lineH * 2) - 18) / lineH
	if maxLines < 1 {
		maxLines = 1
	}
	if g.navScroll > len(g.nav)-1 {
		g.navScroll = max(0, len(g.nav)-1)
	}

	for i := 0; i < maxLines; i++ {
		idx := g.navScroll + i
		if idx < 0 || idx >= len(g.nav) {
			break
		}
		entry := g.nav[idx]
		y := top + i*lineH
		if g.loadedPath != "" && !entry.isDir && samePath(entry.path, g.loadedPath) {
			ebitenutil.DrawRect(screen, float64(rect.Min.X+6), float64(y-2), float64(rect.Dx()-12), float64(lineH+2), highlightColor)
		}
		txt := entry.name
		if entry.isDir && entry.name != ".." {
			txt += "/"
		}
		g.drawText(screen, shortenEnd(txt, maxChars-1), rect.Min.X+10, y)
	}
}

func (g *game) drawMarkers(screen *ebiten.Image, rect image.Rectangle) {
	markers := g.session.Markers()
	top := rect.Min.Y + 12 + lineH
	maxLines := (rect.Dy() - lineH - 18) / lineH
	if maxLines < 1 {
		maxLines = 1
	}
	if g.markerScroll > len(markers)-1 {
		g.markerScroll = max(0, len(markers)-1)
	}
	maxChars := max(8, (rect.Dx()-16)/charW)

	if len(markers) == 0 {
		g.drawText(screen, "No markers. Press M.", rect.Min.X+8, top)
		return
	}
	for i := 0; i < maxLines; i++ {
		idx := g.markerScroll + i
		if idx >= len(markers) {
			break
		}
		m := markers[idx]
		txt := g.labelFor(m.Ms) + "  " + m.Name
		g.drawText(screen, shortenEnd(txt, maxChars-1), rect.Min.X+10, top+i*lineH)
	}
}

func (g *game) clickMarkers(my int, rect image.Rectangle) {
	markers := g.session.Markers()
	top := rect.Min.Y + 12 + lineH
	row := (my - top) / lineH
	if row < 0 {
		return
	}
	idx := g.markerScroll + row
	if idx < 0 || idx >= len(markers) {
		return
	}
	g.session.SeekMs(markers[idx].Ms)
	g.setStatus("Marker: " + markers[idx].Name)
}

func (g *game) clickNavigator(my int, rect image.Rectangle) {
	top := rect.Min.Y + 12 + (lineH * 2)
	row := (my - top) / lineH
	if row < 0 {
		return
	}
	idx := g.navScroll + row
	if idx < 0 || idx >= len(g.nav) {
		return
	}
	entry := g.nav[idx]
	if entry.isDir {
		g.cwd = entry.path
		g.navScroll = 0
		if err := g.refreshNav(); err != nil {
			g.setError(err.Error())
			return
		}
		g.setStatus("Directory: " + g.cwd)
		return
	}

	doubleClickSame := samePath(entry.path, g.lastNavPath) && (g.frameTick-g.lastNavClickTick) <= 18
	g.lastNavPath = entry.path
	g.lastNavClickTick = g.frameTick

	if err := g.loadFile(entry.path); err != nil {
		g.setError(err.Error())
		return
	}
	if doubleClickSame {
		g.session.SeekMs(0)
		g.session.Play()
		g.setStatus("Playing " + filepath.Base(entry.path))
		return
	}
	g.setStatus("Loaded " + filepath.Base(entry.path))
}

func (g *game) refreshNav() error {
	items, err := os.ReadDir(g.cwd)
	if err != nil {
		return err
	}
	dirs := make([]navEntry, 0)
	files := make([]navEntry, 0)

	parent := filepath.Dir(g.cwd)
	if parent != g.cwd {
		dirs = append(dirs, navEntry{name: "..", path: parent, isDir: true})
	}

	for _, it := range items {
		name := it.Name()
		full := filepath.Join(g.cwd, name)
		if it.IsDir() {
			dirs = append(dirs, navEntry{name: name, path: full, isDir: true})
			continue
		}
		if audinux.IsPlayable(name) {
			files = append(files, navEntry{name: name, path: full, isDir: false})
		}
	}

	sort.Slice(dirs, func(i, j int) bool {
		if dirs[i].name == ".." {
			return true
		}
		if dirs[j].name == ".." {
			return false
		}
		return strings.ToLower(dirs[i].name) < strings.ToLower(dirs[j].name)
	})
	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(files[i].name) < strings.ToLower(files[j].name)
	})
	g.nav = append(dirs, files...)
	return nil
}

func (g *game) loadFile(path string) error {
	if err := g.session.Load(path); err != nil {
		return err
	}
	g.loadedPath = path
	g.cwd = filepath.Dir(path)
	g.waveScroll = 0
	g.markerScroll = 0
	g.loopAnchor = -1
	g.queueOnce(path)
	ph := g.session.Playhead()
	g.rate = ph.Rate
	g.volume = float64(ph.Volume) / 100
	return g.refreshNav()
}

// queueOnce appends a path to the playlist unless it is already queued,
// and moves the cursor onto it.
func (g *game) queueOnce(path string) {
	pl := g.session.Playlist()
	for i, p := range pl.Entries() {
		if samePath(p, path) {
			pl.Select(i)
			return
		}
	}
	pl.Queue(path)
	pl.Select(pl.Len() - 1)
}

const (
	rateSliderMin = 0.25
	rateSliderMax = 2.0
)

func (g *game) drawRateSlider(screen *ebiten.Image, rect image.Rectangle) {
	g.drawPanel(screen, rect)
	label := fmt.Sprintf("Rate %.2fx", g.rate)
	g.drawText(screen, label, rect.Min.X+8, rect.Min.Y+8)

	trackX := rect.Min.X + 100
	trackW := rect.Dx() - 116
	trackY := rect.Min.Y + rect.Dy()/2 - 4
	if trackW < 20 {
		return
	}
	// Sunken track groove.
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW), 8, bevelDarker)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW-1), 1, borderColor)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), 1, 7, borderColor)

	// Mark the 1.0x position.
	oneX := trackX + int(float64(trackW)*(1.0-rateSliderMin)/(rateSliderMax-rateSliderMin))
	ebitenutil.DrawRect(screen, float64(oneX)-1, float64(trackY-2), 2, 12, borderColor)

	frac := clamp((g.rate-rateSliderMin)/(rateSliderMax-rateSliderMin), 0, 1)
	knobX := trackX + int(frac*float64(trackW)) - 5
	if knobX < trackX-5 {
		knobX = trackX - 5
	}
	if knobX > trackX+trackW-5 {
		knobX = trackX + trackW - 5
	}
	knobRect := image.Rect(knobX, trackY-4, knobX+10, trackY+12)
	ebitenutil.DrawRect(screen, float64(knobRect.Min.X), float64(knobRect.Min.Y), float64(knobRect.Dx()), float64(knobRect.Dy()), panelColor)
	drawBorder(screen, knobRect)
}

func (g *game) updateRateFromMouse(mx int, rect image.Rectangle) {
	trackX := rect.Min.X + 100
	trackW := rect.Dx() - 116
	if trackW <= 0 {
		return
	}
	frac := clamp(float64(mx-trackX)/float64(trackW), 0, 1)
	rate := rateSliderMin + frac*(rateSliderMax-rateSliderMin)
	g.session.SetRate(rate)
	g.rate = g.session.Playhead().Rate
	g.setStatus(fmt.Sprintf("Rate: %.2fx", g.rate))
}

func (g *game) drawVolumeSlider(screen *ebiten.Image, rect image.Rectangle) {
	g.drawPanel(screen, rect)
	label := fmt.Sprintf("Vol %d%%", int(g.volume*100+0.5))
	g.drawText(screen, label, rect.Min.X+8, rect.Min.Y+8)

	trackX := rect.Min.X + 130
	trackW := rect.Dx() - 146
	trackY := rect.Min.Y + rect.Dy()/2 - 4
	if trackW < 20 {
		return
	}
	// Sunken track groove.
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW), 8, bevelDarker)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW-1), 1, borderColor)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), 1, 7, borderColor)
	// Fill.
	fillW := int(float64(trackW) * clamp(g.volume, 0, 1))
	if fillW > 2 {
		ebitenutil.DrawRect(screen, float64(trackX+1), float64(trackY+1), float64(fillW-1), 6, sliderFillColor)
	}
	// Raised knob.
	knobX := trackX + fillW - 5
	if knobX < trackX-5 {
		knobX = trackX - 5
	}
	if knobX > trackX+trackW-5 {
		knobX = trackX + trackW - 5
	}
	knobRect := image.Rect(knobX, trackY-4, knobX+10, trackY+12)
	ebitenutil.DrawRect(screen, float64(knobRect.Min.X), float64(knobRect.Min.Y), float64(knobRect.Dx()), float64(knobRect.Dy()), panelColor)
	drawBorder(screen, knobRect)
}

func (g *game) updateVolumeFromMouse(mx int, rect image.Rectangle) {
	trackX := rect.Min.X + 130
	trackW := rect.Dx() - 146
	if trackW <= 0 {
		return
	}
	v := clamp(float64(mx-trackX)/float64(trackW), 0, 1)
	g.volume = v
	g.session.SetVolume(int(v*100 + 0.5))
	g.setStatus(fmt.Sprintf("Volume: %d%%", int(v*100+0.5)))
}

func (g *game) drawStatus(screen *ebiten.Image, rect image.Rectangle) {
	ph := g.session.Playhead()
	msg := ph.PositionLabel + " / " + ph.DurationLabel + "   " + g.status
	if g.statusErr {
		msg = "ERROR - " + g.status
	}
	if info, ok := g.session.Track(); ok && !g.statusErr {
		title := info.Title
		if info.Artist != "" {
			title = info.Artist + " - " + title
		}
		msg += "   [" + title + "]"
	}
	maxChars := max(8, (rect.Dx()-16)/charW)
	g.drawText(screen, shortenEnd(msg, maxChars), rect.Min.X+8, rect.Min.Y+6)
}

func (g *game) playButtonLabel() string {
	if g.session.Playhead().Playing {
		return "Pause"
	}
	return "Play"
}

func (g *game) loopButtonLabel() string {
	if _, active := g.session.Loop(); active {
		return "Loop: on"
	}
	if g.loopAnchor >= 0 {
		return "Loop: A.."
	}
	return "Loop: off"
}

func (g *game) labelFor(ms int64) string {
	s := ms / 1000
	if s >= 3600 {
		return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

func (g *game) setError(msg string) {
	g.status = msg
	g.statusErr = true
}

func (g *game) setStatus(msg string) {
	g.status = msg
	g.statusErr = false
}

func (g *game) drawPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), panelColor)
	drawBorder(screen, rect)
}

func (g *game) drawSunkenPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), sunkenBgColor)
	drawSunkenBorder(screen, rect)
}

func (g *game) drawDarkPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), color.RGBA{0, 0, 0, 255})
	drawSunkenBorder(screen, rect)
}

func (g *game) drawButton(screen *ebiten.Image, rect image.Rectangle, label string, fill color.Color) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), panelColor)
	drawBorder(screen, rect)
	labelW := len([]rune(label)) * charW
	x := rect.Min.X + (rect.Dx()-labelW)/2
	y := rect.Min.Y + (rect.Dy()-lineH)/2
	g.drawText(screen, label, x, y)
}

// drawBorder draws a raised 3D bevel (highlight top/left, shadow bottom/right).
func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+h-2, w-3, 1, borderColor)
	ebitenutil.DrawRect(screen, x+w-2, y+1, 1, h-3, borderColor)
}

// drawSunkenBorder draws a sunken 3D bevel (shadow top/left, highlight bottom/right).
func drawSunkenBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, borderColor)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, borderColor)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelLight)
	ebitenutil.DrawRect(screen, x+1, y+1, w-3, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+2, 1, h-4, bevelDarker)
}

func (g *game) drawText(screen *ebiten.Image, msg string, x int, y int) {
	if msg == "" {
		return
	}
	img := g.textCache[msg]
	if img == nil {
		w := max(1, len([]rune(msg))*7)
		img = ebiten.NewImage(w, 14)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(g.textCache) > 3000 {
			g.textCache = make(map[string]*ebiten.Image, 1024)
		}
		g.textCache[msg] = img
	}
	// Embossed shadow (dark offset behind text).
	opS := &ebiten.DrawImageOptions{}
	opS.GeoM.Scale(textScale, textScale)
	opS.GeoM.Translate(float64(x+2), float64(y+2))
	opS.ColorScale.Scale(0, 0, 0, 1)
	screen.DrawImage(img, opS)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(img, op)
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

func shortenEnd(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:max(0, maxChars)])
	}
	return string(r[:maxChars-3]) + "..."
}

func shortenMiddle(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 7 {
		return shortenEnd(s, maxChars)
	}
	left := (maxChars - 3) / 2
	right := maxChars - 3 - left
	return string(r[:left]) + "..." + string(r[len(r)-right:])
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}

func main() {
	var initialPath string
	if len(os.Args) > 1 {
		p, err := filepath.Abs(os.Args[1])
		if err != nil {
			log.Fatalf("resolve %q: %v", os.Args[1], err)
		}
		initialPath = p
	}

	g, err := newGame(initialPath)
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(minWindowW, minWindowH, -1, -1)
	ebiten.SetWindowTitle("audinux")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
