package ocr

import (
	"fmt"
	"path/filepath"

	"gocv.io/x/gocv"
)

// VideoSampler reads frames from a video container by index and OCRs the two
// caption bands. It keeps the current frame plus both masked debug images so
// the driver can persist them for audit when a boundary fires.
type VideoSampler struct {
	cap     *gocv.VideoCapture
	ext     *Extractor
	speaker MaskConfig
	topic   MaskConfig

	frame        gocv.Mat
	speakerDebug gocv.Mat
	topicDebug   gocv.Mat
}

func NewVideoSampler(videoPath string, ext *Extractor, speaker, topic MaskConfig) (*VideoSampler, error) {
	cap, err := gocv.OpenVideoCapture(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", videoPath, err)
	}
	return &VideoSampler{
		cap:          cap,
		ext:          ext,
		speaker:      speaker,
		topic:        topic,
		frame:        gocv.NewMat(),
		speakerDebug: gocv.NewMat(),
		topicDebug:   gocv.NewMat(),
	}, nil
}

// SampleSpeaker seeks to the given frame index, reads the frame and OCRs the
// speaker band. ok=false means end of stream (an unreadable frame counts as
// end of stream, not an error).
func (s *VideoSampler) SampleSpeaker(frameIndex int) (Reading, bool, error) {
	s.cap.Set(gocv.VideoCapturePosFrames, float64(frameIndex))
	if !s.cap.Read(&s.frame) || s.frame.Empty() {
		return NoReading(), false, nil
	}
	reading, debug, err := s.ext.Extract(s.frame, s.speaker)
	if err != nil {
		return NoReading(), false, err
	}
	s.speakerDebug.Close()
	s.speakerDebug = debug
	return reading, true, nil
}

// SampleTopic OCRs the topic band of the most recently read frame.
func (s *VideoSampler) SampleTopic() (Reading, error) {
	reading, debug, err := s.ext.Extract(s.frame, s.topic)
	if err != nil {
		return NoReading(), err
	}
	s.topicDebug.Close()
	s.topicDebug = debug
	return reading, nil
}

// PersistAudit writes the original frame and both masked images for the
// current frame index into dir.
func (s *VideoSampler) PersistAudit(dir string, frameIndex int) error {
	writes := []struct {
		name string
		img  gocv.Mat
	}{
		{fmt.Sprintf("original_frame_%d.png", frameIndex), s.frame},
		{fmt.Sprintf("processed_speaker_frame_%d.png", frameIndex), s.speakerDebug},
		{fmt.Sprintf("processed_topic_frame_%d.png", frameIndex), s.topicDebug},
	}
	for _, w := range writes {
		if w.img.Empty() {
			continue
		}
		if ok := gocv.IMWrite(filepath.Join(dir, w.name), w.img); !ok {
			return fmt.Errorf("write audit image %s", w.name)
		}
	}
	return nil
}

func (s *VideoSampler) Close() error {
	s.frame.Close()
	s.speakerDebug.Close()
	s.topicDebug.Close()
	return s.cap.Close()
}
