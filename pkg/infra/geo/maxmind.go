package geo

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
	"github.com/sirupsen/logrus"
)

type maxmindResolver struct {
	reader *geoip2.Reader
	logger *logrus.Logger
}

// NewMaxMindResolver opens a GeoIP2/GeoLite2 City database.
func NewMaxMindResolver(databasePath string, logger *logrus.Logger) (Resolver, error) {
	reader, err := geoip2.Open(databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open geo database %s: %w", databasePath, err)
	}
	logger.WithField("path", databasePath).Info("geo database loaded")
	return &maxmindResolver{
		reader: reader,
		logger: logger,
	}, nil
}

func (r *maxmindResolver) Resolve(_ context.Context, ip string) Location {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Location{}
	}

	record, err := r.reader.City(parsed)
	if err != nil {
		r.logger.WithError(err).WithField("ip", ip).Debug("geo lookup failed")
		return Location{}
	}

	var loc Location
	if iso := record.Country.IsoCode; iso != "" {
		loc.Country = &iso
	}
	if city := record.City.Names["en"]; city != "" {
		loc.City = &city
	}
	if record.Location.Latitude != 0 || record.Location.Longitude != 0 {
		lat := record.Location.Latitude
		lon := record.Location.Longitude
		loc.Latitude = &lat
		loc.Longitude = &lon
	}
	return loc
}

func (r *maxmindResolver) Close() error {
	return r.reader.Close()
}
