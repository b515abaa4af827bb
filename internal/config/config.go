package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/klokku/prayer-sync/pkg/rules"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultPath = "./config/prayer-sync.yaml"
	envPrefix   = "PRAYERSYNC_"
)

const (
	SinkGoogle = "google"
	SinkICS    = "ics"
)

// Keys are single lower-case words so that every setting can also be given
// as PRAYERSYNC_<SECTION>_<KEY>.
type Application struct {
	DataDir        string             `koanf:"datadir"`
	FilenameLayout string             `koanf:"filenamelayout"`
	Timezone       string             `koanf:"timezone"`
	Profile        string             `koanf:"profile"`
	Profiles       map[string]Profile `koanf:"profiles"`
	Auth           Auth               `koanf:"auth"`
	Calendar       Calendar           `koanf:"calendar"`
	Logging        Logging            `koanf:"logging"`
}

type Auth struct {
	CredentialsPath string `koanf:"credentialspath"`
	TokenPath       string `koanf:"tokenpath"`
}

type Calendar struct {
	Id               string `koanf:"id"`
	ColorId          string `koanf:"colorid"`
	Sink             string `koanf:"sink"`
	IcsPath          string `koanf:"icspath"`
	DeterministicIds bool   `koanf:"deterministicids"`
}

type Logging struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

func defaults() Application {
	return Application{
		DataDir:        "prayer-times",
		FilenameLayout: "Jan-2006.csv",
		Timezone:       "Europe/London",
		Profile:        rules.ProfileJamaah,
		Auth: Auth{
			CredentialsPath: "credentials.json",
			TokenPath:       "token.json",
		},
		Calendar: Calendar{
			Id:               "primary",
			ColorId:          "1",
			Sink:             SinkGoogle,
			IcsPath:          "prayer-times.ics",
			DeterministicIds: true,
		},
		Logging: Logging{
			Level: "info",
			File:  "calendar_sync.log",
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}
	if err := app.Validate(); err != nil {
		return Application{}, err
	}
	return app, nil
}

func (a Application) Validate() error {
	switch a.Calendar.Sink {
	case SinkGoogle, SinkICS:
	default:
		return fmt.Errorf("unknown calendar sink %q", a.Calendar.Sink)
	}
	if a.DataDir == "" {
		return fmt.Errorf("datadir must not be empty")
	}
	if a.FilenameLayout == "" {
		return fmt.Errorf("filenamelayout must not be empty")
	}
	return nil
}
