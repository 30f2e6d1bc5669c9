package segmenter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"speechline/internal/media/audio"
	"speechline/internal/offset"
	"speechline/internal/testsupport"
)

type stubClassifier struct {
	preds []audio.Prediction
	err   error
	calls int
	clips int
}

func (s *stubClassifier) Classify(_ context.Context, clips []audio.Waveform, _ float64) ([][]audio.Prediction, error) {
	s.calls++
	s.clips += len(clips)
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]audio.Prediction, len(clips))
	for i := range out {
		out[i] = s.preds
	}
	return out, nil
}

func wordRequest(t *testing.T) (Request, string) {
	t.Helper()
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "input", "en", "utt.wav")
	return Request{
		AudioPath:   audioPath,
		Audio:       testsupport.Tone(audio.ExportSampleRate, 3, 0.3),
		Offsets:     testsupport.WordOffsets(),
		GroundTruth: []string{"red", "umbrella", "just", "the", "best"},
	}, filepath.Join(dir, "output")
}

func TestChunkAudioSegmentsExports(t *testing.T) {
	req, outDir := wordRequest(t)
	result, err := ChunkAudioSegments(context.Background(), NewWordOverlap(), req, ChunkOptions{
		OutDir:               outDir,
		MinimumChunkDuration: 0.75,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Empty {
		t.Fatalf("unexpected empty result: %s", result.Reason)
	}
	if len(result.Segments) != 2 || len(result.Chunks) != 1 || result.Skipped != 1 {
		t.Fatalf("segments=%d chunks=%d skipped=%d", len(result.Segments), len(result.Chunks), result.Skipped)
	}

	chunk := result.Chunks[0]
	if chunk.Index != 0 {
		t.Fatalf("chunk index = %d", chunk.Index)
	}
	wantWAV := filepath.Join(outDir, "en", "utt-0.wav")
	wantTSV := filepath.Join(outDir, "en", "utt-0.tsv")
	if chunk.AudioPath != wantWAV || chunk.TranscriptPath != wantTSV {
		t.Fatalf("paths = %s %s", chunk.AudioPath, chunk.TranscriptPath)
	}

	data, err := os.ReadFile(wantTSV)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "0.000\t0.180\tRED\n0.340\t0.780\tUMBRELLA\n" {
		t.Fatalf("tsv = %q", data)
	}
	reread, err := offset.ReadTSVFile(wantTSV)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(reread, result.Segments[0]) {
		t.Fatalf("re-read transcript %#v != %#v", reread, result.Segments[0])
	}

	wave, err := audio.LoadWAV(wantWAV)
	if err != nil {
		t.Fatal(err)
	}
	if wave.SampleRate != audio.ExportSampleRate || wave.DurationMillis() != 780 {
		t.Fatalf("chunk audio = %d ms @ %d", wave.DurationMillis(), wave.SampleRate)
	}

	if _, err := os.Stat(filepath.Join(outDir, "en", "utt-1.wav")); !os.IsNotExist(err) {
		t.Fatalf("short chunk should not be exported: %v", err)
	}
	if result.Segments[1][0].Start != 0 {
		t.Fatalf("skipped segment not shifted: %#v", result.Segments[1])
	}
}

func TestChunkAudioSegmentsEmptyResults(t *testing.T) {
	req, outDir := wordRequest(t)
	opts := ChunkOptions{OutDir: outDir}

	tests := []struct {
		name   string
		seg    Segmenter
		mutate func(*Request)
		reason string
	}{
		{"no offsets", NewWordOverlap(), func(r *Request) { r.Offsets = nil }, ReasonNoOffsets},
		{"no ground truth", NewWordOverlap(), func(r *Request) { r.GroundTruth = nil }, ReasonNoGroundTruth},
		{"no matches", NewWordOverlap(), func(r *Request) { r.GroundTruth = []string{"zebra"} }, ReasonNoSegments},
		{"no audio", NewSilence(0.1), func(r *Request) { r.Audio = audio.Waveform{} }, ReasonNoAudio},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := req
			tt.mutate(&r)
			result, err := ChunkAudioSegments(context.Background(), tt.seg, r, opts)
			if err != nil {
				t.Fatal(err)
			}
			if !result.Empty || result.Reason != tt.reason {
				t.Fatalf("result = %+v, want empty with %q", result, tt.reason)
			}
		})
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Fatalf("empty results must not create output: %v", err)
	}
}

func TestChunkAudioSegmentsSilenceNeedsNoGroundTruth(t *testing.T) {
	req, outDir := wordRequest(t)
	req.GroundTruth = nil
	result, err := ChunkAudioSegments(context.Background(), NewSilence(0.3), req, ChunkOptions{OutDir: outDir})
	if err != nil {
		t.Fatal(err)
	}
	if result.Empty || len(result.Chunks) != len(result.Segments) {
		t.Fatalf("result = %+v", result)
	}
}

func TestChunkAudioSegmentsNoiseTagging(t *testing.T) {
	req, outDir := wordRequest(t)
	classifier := &stubClassifier{preds: []audio.Prediction{
		{Label: "music", Score: 0.7},
		{Label: "laughter", Score: 0.9},
	}}
	result, err := ChunkAudioSegments(context.Background(), NewWordOverlap(), req, ChunkOptions{
		OutDir:               outDir,
		NoiseClassify:        true,
		MinimumEmptyDuration: 0.15,
		NoiseThreshold:       0.5,
		Classifier:           classifier,
	})
	if err != nil {
		t.Fatal(err)
	}
	if classifier.calls != 1 || classifier.clips != 1 {
		t.Fatalf("classifier calls=%d clips=%d", classifier.calls, classifier.clips)
	}
	want := offset.Segment{
		{Unit: "RED", Start: 0, End: 0.18},
		{Noise: offset.Classified("laughter"), Start: 0.18, End: 0.34},
		{Unit: "UMBRELLA", Start: 0.34, End: 0.78},
	}
	if !reflect.DeepEqual(result.Segments[0], want) {
		t.Fatalf("tagged segment = %#v", result.Segments[0])
	}
	if result.NoiseTags["laughter"] != 1 {
		t.Fatalf("noise tags = %v", result.NoiseTags)
	}

	classifier.err = errors.New("model offline")
	if _, err := ChunkAudioSegments(context.Background(), NewWordOverlap(), req, ChunkOptions{
		OutDir:               outDir,
		NoiseClassify:        true,
		MinimumEmptyDuration: 0.15,
		Classifier:           classifier,
	}); err == nil {
		t.Fatal("expected classifier error")
	}
}

func TestInsertEmptyTagsAndUnqualifiedPredictions(t *testing.T) {
	segments := []offset.Segment{{
		{Unit: "a", Start: 0, End: 0.5},
		{Unit: "b", Start: 1.0, End: 1.2},
		{Unit: "c", Start: 1.25, End: 1.5},
	}}
	tagged := InsertEmptyTags(segments, 0.5)
	if len(tagged[0]) != 4 || tagged[0][1].Noise != offset.Empty() || tagged[0][1].Start != 0.5 || tagged[0][1].End != 1.0 {
		t.Fatalf("tagged = %#v", tagged[0])
	}
	if len(segments[0]) != 3 {
		t.Fatal("InsertEmptyTags must not modify its input")
	}

	wave := testsupport.Tone(audio.ExportSampleRate, 2, 0.3)
	out, labels, err := ClassifyNoise(context.Background(), tagged, wave, &stubClassifier{}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if out[0][1].Text() != offset.EmptyTag || len(labels) != 0 {
		t.Fatalf("marker without predictions should stay empty: %#v %v", out[0][1], labels)
	}
}

func TestChunkPath(t *testing.T) {
	got := ChunkPath("/data/in/id/utt_01.wav", "/data/out", 3, "tsv")
	if got != "/data/out/id/utt_01-3.tsv" {
		t.Fatalf("ChunkPath = %s", got)
	}
}
