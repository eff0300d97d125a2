package registry

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nao1215/identscan/internal/config"
	"github.com/nao1215/identscan/internal/probe"
)

// Deps are the shared collaborators injected into built probes.
type Deps struct {
	// HTTPClient is used by every network probe. Nil uses a plain client.
	HTTPClient *http.Client

	GitHubToken string
	HIBPAPIKey  string

	// BreachLookup backs corpus probes. Corpus definitions are skipped
	// when it is nil.
	BreachLookup probe.BreachLookup

	// MXResolver backs email info probes. Nil uses the system resolver.
	MXResolver probe.MXResolver

	// MaxBodySize caps response bodies read by HTTP probes.
	MaxBodySize int64

	// ProcessEnv is appended to the environment of external tools.
	ProcessEnv []string

	Logger *slog.Logger
}

// Build constructs every enabled definition in defs and groups the probes
// with New.
func Build(defs *config.File, deps Deps) (*Registry, error) {
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	probes := make([]probe.Probe, 0, len(defs.Probes))
	for _, def := range defs.Probes {
		if def.Type == config.TypeCorpus && deps.BreachLookup == nil {
			deps.Logger.Debug("skipping breach corpus probe", "probe", def.Name, "reason", "no corpus configured")
			continue
		}
		p, err := buildProbe(def, deps)
		if err != nil {
			return nil, err
		}
		probes = append(probes, p)
	}
	return New(probes...)
}

func buildProbe(def config.ProbeDefinition, deps Deps) (probe.Probe, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	kind, err := def.SubjectKind()
	if err != nil {
		return nil, err
	}

	desc := probe.Descriptor{
		Name:        def.Name,
		Kind:        kind,
		Tier:        def.Tier,
		Tags:        def.Tags,
		URLTemplate: def.URL,
		Timeout:     def.Timeout,
		Signal:      def.Type.IsSignal(),
	}

	switch def.Type {
	case config.TypeHTTP:
		opts := []probe.HTTPOption{
			probe.WithProfileExtraction(def.ExtractProfile),
			probe.WithMaxBodySize(deps.MaxBodySize),
		}
		if def.Method != "" {
			opts = append(opts, probe.WithMethod(def.Method))
		}
		if def.Body != "" {
			opts = append(opts, probe.WithBody(def.Body))
		}
		if len(def.Headers) > 0 {
			opts = append(opts, probe.WithHeaders(def.Headers))
		}
		if def.ProfileURL != "" {
			opts = append(opts, probe.WithProfileURL(def.ProfileURL))
		}
		if def.Status != nil {
			opts = append(opts, probe.WithStatusRule(probe.StatusRule{
				Found:     def.Status.Found,
				NotFound:  def.Status.NotFound,
				Uncertain: def.Status.Uncertain,
			}))
		}
		return probe.NewHTTPProbe(desc, deps.HTTPClient, opts...), nil

	case config.TypeProcess:
		desc.Invocation = &probe.Invocation{Command: def.Command, Args: def.Args, Parser: def.Parser}
		return probe.NewProcessProbe(desc, probe.WithEnv(deps.ProcessEnv))

	case config.TypeGitHub:
		return probe.NewGitHubProbe(desc, deps.HTTPClient,
			probe.WithGitHubToken(deps.GitHubToken),
			probe.WithGitHubBaseURL(def.URL))

	case config.TypeHIBP:
		return probe.NewBreachProbe(desc, deps.HTTPClient, deps.HIBPAPIKey, probe.WithHIBPBaseURL(def.URL)), nil

	case config.TypeCorpus:
		return probe.NewCorpusProbe(desc, deps.BreachLookup), nil

	case config.TypeEmailInfo:
		return probe.NewEmailInfoProbe(desc, deps.MXResolver), nil

	case config.TypeReverseImage:
		return probe.NewReverseImageProbe(desc, deps.HTTPClient,
			probe.WithUploadField(def.UploadField),
			probe.WithUploadHeaders(def.Headers),
			probe.WithResultClass(def.ResultClass),
			probe.WithMaxLinks(def.MaxLinks)), nil

	case config.TypeEXIF:
		return probe.NewEXIFProbe(desc), nil
	}
	return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedProbe, strings.TrimSpace(string(def.Type)), def.Name)
}
