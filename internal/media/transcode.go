package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

// canonicalRate is the sample rate every transcoded source is resampled to.
// It matches the playback driver's output rate.
const canonicalRate = 48000

// preparePCM returns the path of a mono 16-bit WAV rendition of the input.
// A WAV that already has that shape is used in place; anything else is
// transcoded once into the user cache directory, keyed by path, size and
// mtime so an edited file re-transcodes while an unchanged one is reused.
func preparePCM(audioPath string) (string, error) {
	if isCanonicalWAV(audioPath) {
		return audioPath, nil
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		return "", err
	}
	out, err := cachePath(audioPath, info)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(out); err == nil {
		return out, nil
	}

	tmp := out + ".part"
	ffmpegErr := transcodeFFmpeg(audioPath, tmp)
	if ffmpegErr != nil {
		// No usable ffmpeg; mp3 still decodes in-process.
		if strings.EqualFold(filepath.Ext(audioPath), ".mp3") {
			if mp3Err := transcodeMP3(audioPath, tmp); mp3Err != nil {
				return "", fmt.Errorf("ffmpeg: %v; mp3 decode: %w", ffmpegErr, mp3Err)
			}
		} else {
			return "", fmt.Errorf("ffmpeg: %w", ffmpegErr)
		}
	}
	if err := os.Rename(tmp, out); err != nil {
		return "", err
	}
	return out, nil
}

func isCanonicalWAV(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), ".wav") {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	d := wav.NewDecoder(f)
	d.ReadInfo()
	return d.IsValidFile() && d.NumChans == 1 && d.BitDepth == 16
}

// cachePath derives the transcode target inside the user cache directory.
func cachePath(audioPath string, info os.FileInfo) (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "audinux", "pcm")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create pcm cache dir: %w", err)
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d", audioPath, info.Size(), info.ModTime().UnixNano())
	sum := hex.EncodeToString(h.Sum(nil))[:16]
	return filepath.Join(dir, sum+".wav"), nil
}

func transcodeFFmpeg(in, out string) error {
	return ffmpeggo.Input(in).
		Output(out, ffmpeggo.KwArgs{
			"ac":     1,
			"ar":     canonicalRate,
			"acodec": "pcm_s16le",
			"vn":     "",
		}).
		OverWriteOutput().
		Silent(true).
		Run()
}

// transcodeMP3 decodes an mp3 in-process and writes the canonical WAV.
// go-mp3 always emits 16-bit little-endian stereo frames at the file's
// native rate; channels are averaged down to mono.
func transcodeMP3(in, out string) error {
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return err
	}

	w, err := os.Create(out)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(w, dec.SampleRate(), 16, 1, 1)

	buf := make([]byte, 32768)
	frame := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: dec.SampleRate()},
		SourceBitDepth: 16,
	}
	for {
		n, err := io.ReadFull(dec, buf)
		if n > 0 {
			n &^= 3 // whole stereo frames only
			frame.Data = frame.Data[:0]
			for i := 0; i < n; i += 4 {
				l := int16(uint16(buf[i]) | uint16(buf[i+1])<<8)
				r := int16(uint16(buf[i+2]) | uint16(buf[i+3])<<8)
				frame.Data = append(frame.Data, (int(l)+int(r))/2)
			}
			if werr := enc.Write(frame); werr != nil {
				enc.Close()
				w.Close()
				return werr
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			enc.Close()
			w.Close()
			return err
		}
	}
	if err := enc.Close(); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
