package shorts

import (
	"errors"
	"fmt"
	"time"

	"shortreel/internal/services"
)

// Job is one queued request to produce a video.
type Job struct {
	ID        string
	Scenes    []SceneRequest
	Config    RenderConfig
	CreatedAt time.Time
}

// Submission is the client payload accepted by the queue.
type Submission struct {
	Scenes []SceneRequest `json:"scenes" yaml:"scenes"`
	Config RenderConfig   `json:"config" yaml:"config"`
}

// Normalize defaults scene kinds and render options.
func (s Submission) Normalize(defaultVoice string) Submission {
	out := Submission{Scenes: make([]SceneRequest, len(s.Scenes)), Config: s.Config.WithDefaults(defaultVoice)}
	for i, scene := range s.Scenes {
		if scene.Kind == "" {
			scene.Kind = SceneSearch
		}
		out.Scenes[i] = scene
	}
	return out
}

// Validate rejects malformed submissions. Returned errors carry
// services.ErrValidation.
func (s Submission) Validate() error {
	if len(s.Scenes) == 0 {
		return invalid(errors.New("at least one scene is required"))
	}
	for i, scene := range s.Scenes {
		if err := scene.validate(i + 1); err != nil {
			return invalid(err)
		}
	}
	if err := s.Config.validate(); err != nil {
		return invalid(err)
	}
	return nil
}

func invalid(err error) error {
	return services.Wrap(services.ErrValidation, "submit", "validate", fmt.Sprintf("invalid submission: %v", err), nil)
}
