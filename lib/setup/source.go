// Package setup turns CLI flags into configured frame sources. Each
// IncludeXFlags/HandleXFlags pair registers flags on an urfave/cli app
// and later materialises the objects those flags describe.
package setup

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/jetwatch/modes/lib/source"
)

const (
	Fetch  = "fetch"
	Listen = "listen"
	File   = "file"
	RefLat = "ref-lat"
	RefLon = "ref-lon"
	Tag    = "tag"
)

var (
	prometheusInputBeastFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modes_ingest_input_beast_total",
		Help: "The total number of beast frames processed.",
	})
	prometheusInputAvrFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modes_ingest_input_avr_total",
		Help: "The total number of AVR frames processed.",
	})
)

func IncludeSourceFlags(app *cli.App) {
	sourceFlags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:    Fetch,
			Usage:   "The Source in URL Form. [avr|beast]://host:port?tag=MYTAG&refLat=-31.0&refLon=115.0",
			EnvVars: []string{"SOURCE"},
		},
		&cli.StringSliceFlag{
			Name:    Listen,
			Usage:   "The Source in URL Form. [avr|beast]://host:port?tag=MYTAG&refLat=-31.0&refLon=115.0",
			EnvVars: []string{"LISTEN"},
		},
		&cli.StringSliceFlag{
			Name:    File,
			Usage:   "The Source in URL Form. [avr|beast]:///path/to/file?tag=MYTAG&refLat=-31.0&refLon=115.0",
			EnvVars: []string{"FILE"},
		},

		&cli.Float64Flag{
			Name:    RefLat,
			Usage:   "The reference latitude for decoding messages. Needs to be within 45nm of where the messages are generated.",
			EnvVars: []string{"REF_LAT", "LAT"},
		},
		&cli.Float64Flag{
			Name:    RefLon,
			Usage:   "The reference longitude for decoding messages. Needs to be within 45nm of where the messages are generated.",
			EnvVars: []string{"REF_LON", "LONG"},
		},

		&cli.StringFlag{
			Name:    Tag,
			Usage:   "A value that is included in the payloads output to the Sinks. Useful for knowing where something came from",
			EnvVars: []string{"TAG"},
		},
	}

	app.Flags = append(app.Flags, sourceFlags...)
}

func HandleSourceFlags(c *cli.Context) ([]*source.Producer, error) {
	refLat := c.Float64(RefLat)
	refLon := c.Float64(RefLon)
	defaultTag := c.String(Tag)

	out := make([]*source.Producer, 0)

	for _, fetchUrl := range c.StringSlice(Fetch) {
		log.Debug().Str("fetch-url", fetchUrl).Msg("With Fetch")
		p, err := handleSource(fetchUrl, defaultTag, refLat, refLon, false)
		if nil != err {
			log.Error().Err(err).Str("url", fetchUrl).Str("what", "fetch").Msg("Failed setup source")
			return nil, err
		}
		out = append(out, p)
	}
	for _, listenUrl := range c.StringSlice(Listen) {
		log.Debug().Str("listen-url", listenUrl).Msg("With Listen")
		p, err := handleSource(listenUrl, defaultTag, refLat, refLon, true)
		if nil != err {
			log.Error().Err(err).Str("url", listenUrl).Str("what", "listen").Msg("Failed setup listen")
			return nil, err
		}
		out = append(out, p)
	}
	for _, fileUrl := range c.StringSlice(File) {
		log.Debug().Str("file-url", fileUrl).Msg("With File")
		p, err := handleFileSource(fileUrl, defaultTag, refLat, refLon)
		if nil != err {
			log.Error().Err(err).Str("url", fileUrl).Msgf("Failed to understand URL: %s", err)
			return nil, err
		}
		out = append(out, p)
	}

	return out, nil
}

func getRef(parsedUrl *url.URL, what string, defaultRef float64) float64 {
	if nil == parsedUrl {
		return 0
	}
	if parsedUrl.Query().Has(what) {
		f, err := strconv.ParseFloat(parsedUrl.Query().Get(what), 64)
		if nil == err {
			return f
		}
		log.Error().Err(err).Str("query_param", what).Msg("Could not determine reference value")
	}
	return defaultRef
}

func getTag(parsedUrl *url.URL, defaultTag string) string {
	if nil == parsedUrl {
		return defaultTag
	}
	if parsedUrl.Query().Has("tag") {
		return parsedUrl.Query().Get("tag")
	}
	return defaultTag
}

func formatFromScheme(scheme string) (source.Format, error) {
	switch strings.ToLower(scheme) {
	case "avr":
		return source.Avr, nil
	case "beast":
		return source.Beast, nil
	default:
		return source.Avr, fmt.Errorf("unknown scheme: %s, expected one of [avr|beast]", scheme)
	}
}

func handleSource(urlSource, defaultTag string, defaultRefLat, defaultRefLon float64, listen bool) (*source.Producer, error) {
	parsedUrl, err := url.Parse(urlSource)
	if nil != err {
		return nil, err
	}

	format, err := formatFromScheme(parsedUrl.Scheme)
	if nil != err {
		return nil, err
	}

	producerOpts := []source.Option{
		source.WithSourceTag(getTag(parsedUrl, defaultTag)),
		source.WithFormat(format),
		source.WithPrometheusCounters(prometheusInputAvrFrames, prometheusInputBeastFrames),
	}

	refLat := getRef(parsedUrl, "refLat", defaultRefLat)
	refLon := getRef(parsedUrl, "refLon", defaultRefLon)

	if refLat != 0 && refLon != 0 {
		producerOpts = append(producerOpts, source.WithReferenceLatLon(refLat, refLon))
	} else {
		log.Error().
			Float64("ref-lat", refLat).
			Float64("ref-lon", refLon).
			Msg("Do not have a reference lat/lon - will not decode surface position frames")
	}

	if listen {
		producerOpts = append(producerOpts, source.WithListener(parsedUrl.Hostname(), parsedUrl.Port()))
	} else {
		producerOpts = append(producerOpts, source.WithFetcher(parsedUrl.Hostname(), parsedUrl.Port()))
	}

	return source.New(producerOpts...), nil
}

func handleFileSource(urlFile, defaultTag string, defaultRefLat, defaultRefLon float64) (*source.Producer, error) {
	parsedUrl, err := url.Parse(urlFile)
	if nil != err {
		return nil, err
	}

	format, err := formatFromScheme(parsedUrl.Scheme)
	if nil != err {
		return nil, fmt.Errorf("unknown file Type: %s", parsedUrl.Scheme)
	}

	producerOpts := []source.Option{
		source.WithFormat(format),
		source.WithSourceTag(getTag(parsedUrl, defaultTag)),
		source.WithFile(parsedUrl.Path),
	}

	refLat := getRef(parsedUrl, "refLat", defaultRefLat)
	refLon := getRef(parsedUrl, "refLon", defaultRefLon)
	if refLat != 0 && refLon != 0 {
		producerOpts = append(producerOpts, source.WithReferenceLatLon(refLat, refLon))
	}

	return source.New(producerOpts...), nil
}
