// alertbot subscribes to the decoded report stream on NATS and raises
// Discord messages when an aircraft enters one of a user's saved alert
// circles. Users manage their locations with chat commands; alerts can
// additionally be forwarded to an external webhook gateway authenticated
// with OAuth2 client credentials.
package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/jetwatch/modes/lib/bus"
	"github.com/jetwatch/modes/lib/geo"
	"github.com/jetwatch/modes/lib/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	flagDiscordToken   = "discord-token"
	flagNatsURL        = "nats"
	flagAlertChannel   = "alert-channel"
	flagWebhookURL     = "webhook-url"
	flagOAuthClientID  = "oauth-client-id"
	flagOAuthSecret    = "oauth-client-secret"
	flagOAuthTokenURL  = "oauth-token-url"

	// one alert per aircraft+location pair within this window, so a
	// circling aircraft does not flood the channel
	alertRepeatSuppression = 5 * time.Minute
)

type alerter struct {
	discord      *discordgo.Session
	alertChannel string

	webhook       *http.Client
	webhookURL    string
	recentAlerts  *cache.Cache
}

func main() {
	app := &cli.App{
		Name:  "alertbot",
		Usage: "Discord proximity alerts from the decoded report stream",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagDiscordToken,
				Usage:    "Discord bot token",
				EnvVars:  []string{"DISCORD_TOKEN"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    flagNatsURL,
				Usage:   "NATS server carrying decoded reports",
				Value:   "nats://localhost:4222",
				EnvVars: []string{"NATS"},
			},
			&cli.StringFlag{
				Name:    flagAlertChannel,
				Usage:   "Discord channel id to post alerts into",
				EnvVars: []string{"ALERT_CHANNEL"},
			},
			&cli.StringFlag{
				Name:    flagWebhookURL,
				Usage:   "Optional external alert gateway to POST alerts to",
				EnvVars: []string{"WEBHOOK_URL"},
			},
			&cli.StringFlag{
				Name:    flagOAuthClientID,
				Usage:   "OAuth2 client id for the alert gateway",
				EnvVars: []string{"OAUTH_CLIENT_ID"},
			},
			&cli.StringFlag{
				Name:    flagOAuthSecret,
				Usage:   "OAuth2 client secret for the alert gateway",
				EnvVars: []string{"OAUTH_CLIENT_SECRET"},
			},
			&cli.StringFlag{
				Name:    flagOAuthTokenURL,
				Usage:   "OAuth2 token endpoint for the alert gateway",
				EnvVars: []string{"OAUTH_TOKEN_URL"},
			},
		},
		Action: run,
	}
	logging.IncludeVerbosityFlags(app)
	app.Before = func(c *cli.Context) error {
		logging.ConfigureForCli()
		logging.SetLoggingLevel(c)
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("finished with an error")
	}
}

func run(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loadLocationsList()

	discord, err := discordgo.New("Bot " + c.String(flagDiscordToken))
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	a := &alerter{
		discord:      discord,
		alertChannel: c.String(flagAlertChannel),
		recentAlerts: cache.New(alertRepeatSuppression, 10*time.Minute),
	}

	if webhookURL := c.String(flagWebhookURL); webhookURL != "" {
		oauthCfg := clientcredentials.Config{
			ClientID:     c.String(flagOAuthClientID),
			ClientSecret: c.String(flagOAuthSecret),
			TokenURL:     c.String(flagOAuthTokenURL),
		}
		a.webhook = oauthCfg.Client(ctx)
		a.webhookURL = webhookURL
	}

	discord.AddHandler(a.handleChatCommand)
	discord.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages
	if err := discord.Open(); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}
	defer func() { _ = discord.Close() }()

	nc, err := nats.Connect(c.String(flagNatsURL), nats.MaxReconnects(-1))
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	sub, err := nc.Subscribe(bus.SubjectPrefix+".>", a.handleReport)
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	log.Info().Msg("alertbot up")
	<-ctx.Done()
	return nil
}

// handleReport checks one decoded report against every alert circle.
func (a *alerter) handleReport(msg *nats.Msg) {
	var env bus.Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		log.Debug().Err(err).Msg("bad envelope")
		return
	}
	r := env.Report
	if r.Lat == nil || r.Lon == nil {
		return
	}
	altFt := 0
	if r.AltFeet != nil {
		altFt = int(*r.AltFeet)
	}

	forEachLocation(func(l *location) {
		config := l.AlertConfig.configForHeight(altFt)
		if config == nil || !config.Enabled {
			return
		}
		dist := geo.DistanceMeters(*r.Lon, *r.Lat, l.Lon, l.Lat)
		if dist > float64(config.AlertRadiusMtr) {
			return
		}
		key := r.Icao + "/" + l.DiscordUserId + "/" + l.LocationName
		if _, dup := a.recentAlerts.Get(key); dup {
			return
		}
		a.recentAlerts.SetDefault(key, struct{}{})
		a.send(r.Icao, l, altFt, dist)
	})
}

func (a *alerter) send(icao string, l *location, altFt int, distMeters float64) {
	text := fmt.Sprintf("<@%s> aircraft %s near %q: %d ft, %.0f m away",
		l.DiscordUserId, icao, l.LocationName, altFt, distMeters)

	channel := a.alertChannel
	if channel == "" {
		ch, err := a.discord.UserChannelCreate(l.DiscordUserId)
		if err != nil {
			log.Warn().Err(err).Msg("dm channel")
			return
		}
		channel = ch.ID
	}
	if _, err := a.discord.ChannelMessageSend(channel, text); err != nil {
		log.Warn().Err(err).Msg("discord send")
	}

	if a.webhook != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"icao":     icao,
			"location": l.LocationName,
			"user":     l.DiscordUserName,
			"alt_ft":   altFt,
			"dist_m":   distMeters,
		})
		resp, err := a.webhook.Post(a.webhookURL, "application/json", bytes.NewReader(payload))
		if err != nil {
			log.Warn().Err(err).Msg("webhook post")
			return
		}
		_ = resp.Body.Close()
	}
}

// handleChatCommand implements the !alert command set:
//
//	!alert add <name> <lat> <lon>
//	!alert remove <name>
//	!alert list
//	!alert enable|disable <name> <band>
func (a *alerter) handleChatCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	fields := strings.Fields(m.Content)
	if len(fields) < 2 || fields[0] != "!alert" {
		return
	}

	reply := func(text string) {
		_, _ = s.ChannelMessageSend(m.ChannelID, text)
	}

	switch fields[1] {
	case "add":
		if len(fields) != 5 {
			reply("usage: !alert add <name> <lat> <lon>")
			return
		}
		lat, errLat := strconv.ParseFloat(fields[3], 64)
		lon, errLon := strconv.ParseFloat(fields[4], 64)
		if errLat != nil || errLon != nil {
			reply("lat/lon must be decimal degrees")
			return
		}
		if err := addAlertLocation(m.Author.ID, m.Author.Username, fields[2], lat, lon); err != nil {
			reply(err.Error())
			return
		}
		reply(fmt.Sprintf("watching %q at %.4f,%.4f", fields[2], lat, lon))
	case "remove":
		if len(fields) != 3 {
			reply("usage: !alert remove <name>")
			return
		}
		if err := removeAlertLocation(m.Author.ID, fields[2]); err != nil {
			reply(err.Error())
			return
		}
		reply(fmt.Sprintf("removed %q", fields[2]))
	case "list":
		locs := getLocationsForUser(m.Author.ID)
		if len(locs) == 0 {
			reply("no locations saved, add one with !alert add <name> <lat> <lon>")
			return
		}
		var b strings.Builder
		for _, l := range locs {
			fmt.Fprintf(&b, "%s: %.4f,%.4f\n", l.LocationName, l.Lat, l.Lon)
		}
		reply(b.String())
	case "enable", "disable":
		if len(fields) != 4 {
			reply("usage: !alert enable|disable <name> <band>")
			return
		}
		if err := setLocationAlertConfigEnabled(m.Author.ID, fields[2], fields[3], fields[1] == "enable"); err != nil {
			reply(err.Error())
			return
		}
		reply("updated")
	default:
		reply("commands: add, remove, list, enable, disable")
	}
}
