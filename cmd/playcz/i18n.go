package main

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/sWski/plugin.audio.play.cz/modules/plugin"
)

var supportedLanguages = []language.Tag{language.English, language.Czech}

var translations = map[language.Tag]map[plugin.StringID]string{
	language.English: {
		plugin.StrAllStations:   "All stations",
		plugin.StrTop25Stations: "Top 25 stations",
		plugin.StrGenres:        "Genres",
		plugin.StrRegions:       "Regions",
		plugin.StrWebsite:       "Website",
		plugin.StrNetworkError:  "Could not connect to play.cz",
	},
	language.Czech: {
		plugin.StrAllStations:   "Všechny stanice",
		plugin.StrTop25Stations: "Top 25 stanic",
		plugin.StrGenres:        "Žánry",
		plugin.StrRegions:       "Kraje",
		plugin.StrWebsite:       "Web",
		plugin.StrNetworkError:  "Nelze se připojit k play.cz",
	},
}

// catalogLocalizer serves plugin strings from an x/text catalog keyed by
// the string's symbolic name.
type catalogLocalizer struct {
	tag     language.Tag
	printer *message.Printer
}

func newCatalog() (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, strs := range translations {
		for id, text := range strs {
			if err := b.SetString(tag, id.Name(), text); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}

// newLocalizer picks the closest supported language to lang. Unknown or
// empty values fall back to English.
func newLocalizer(lang string) (*catalogLocalizer, error) {
	cat, err := newCatalog()
	if err != nil {
		return nil, err
	}
	tag := language.English
	if requested, err := language.Parse(lang); err == nil {
		_, idx, conf := language.NewMatcher(supportedLanguages).Match(requested)
		if conf != language.No {
			tag = supportedLanguages[idx]
		}
	}
	return &catalogLocalizer{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}, nil
}

func (l *catalogLocalizer) String(id plugin.StringID) (string, bool) {
	key := id.Name()
	text := l.printer.Sprintf(key)
	if text == key {
		return "", false
	}
	return text, true
}
