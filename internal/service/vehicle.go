package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/djh20/lfs-leaderboard/internal/model"
)

const (
	// DefaultModURL is the page listing a vehicle mod, suffixed with its code
	DefaultModURL = "https://www.lfs.net/files/vehmods/"

	modRefreshInterval = 48 * time.Hour
	modCacheKeyPrefix  = "lfsboard:vehmod:"
	modPageLimit       = 1 << 20
)

var officialVehicles = map[string]string{
	"UF1": "UF 1000",
	"XFG": "XF GTI",
	"XRG": "XR GT",
	"LX4": "LX4",
	"LX6": "LX6",
	"RB4": "RB4 GT",
	"FXO": "FXO TURBO",
	"XRT": "XR GT TURBO",
	"RAC": "RACEABOUT",
	"FZ5": "FZ50",
	"UFR": "UF GTR",
	"XFR": "XF GTR",
	"FXR": "FXO GTR",
	"XRR": "XR GTR",
	"FZR": "FZ50 GTR",
	"MRT": "MRT5",
	"FBM": "FORMULA BMW FB02",
	"FOX": "FORMULA XR",
	"FO8": "FORMULA V8",
	"BF1": "BMW SAUBER F1.06",
}

// ErrModNameNotFound is returned when a mod page carries no name
var ErrModNameNotFound = errors.New("mod name not found")

type modEntry struct {
	name      string
	fetchedAt time.Time
}

// VehicleService resolves vehicle codes to display names. Mod names are fetched
// from the LFS website and cached in process, in Redis and in Postgres. Either
// backing store may be nil.
type VehicleService struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *zap.Logger
	client *http.Client
	modURL string
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]modEntry
}

// NewVehicleService creates a new vehicle service
func NewVehicleService(db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) *VehicleService {
	return &VehicleService{
		db:     db,
		redis:  redisClient,
		logger: logger,
		client: &http.Client{Timeout: 10 * time.Second},
		modURL: DefaultModURL,
		now:    time.Now,
		cache:  make(map[string]modEntry),
	}
}

// SetModURL overrides the mod page base URL
func (s *VehicleService) SetModURL(url string) {
	s.modURL = url
}

// IsOfficial reports whether code names a built-in vehicle
func IsOfficial(code string) bool {
	_, ok := officialVehicles[code]
	return ok
}

// NameFor returns the display name of a vehicle. Unknown codes resolve to
// themselves.
func (s *VehicleService) NameFor(ctx context.Context, code string) string {
	if name, ok := officialVehicles[code]; ok {
		return name
	}

	s.mu.RLock()
	entry, ok := s.cache[code]
	s.mu.RUnlock()
	if ok {
		return entry.name
	}

	if s.redis != nil {
		name, err := s.redis.Get(ctx, modCacheKeyPrefix+code).Result()
		if err == nil && name != "" {
			s.remember(code, name, s.now())
			return name
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Debug("Vehicle name cache lookup failed", zap.String("vehicle", code), zap.Error(err))
		}
	}

	if s.db != nil {
		var mod model.VehicleMod
		err := s.db.WithContext(ctx).Where("id = ?", code).First(&mod).Error
		if err == nil {
			s.remember(code, mod.Name, mod.FetchedAt)
			s.cacheRedis(ctx, code, mod.Name)
			return mod.Name
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Debug("Vehicle name lookup failed", zap.String("vehicle", code), zap.Error(err))
		}
	}

	return code
}

// Refresh fetches the display name of a mod unless a copy younger than
// 48 hours is already known. Official vehicles are never fetched.
func (s *VehicleService) Refresh(ctx context.Context, code string) error {
	if IsOfficial(code) {
		return nil
	}

	now := s.now()

	s.mu.RLock()
	entry, ok := s.cache[code]
	s.mu.RUnlock()
	if ok && now.Sub(entry.fetchedAt) < modRefreshInterval {
		return nil
	}

	if s.db != nil {
		var mod model.VehicleMod
		err := s.db.WithContext(ctx).Where("id = ?", code).First(&mod).Error
		switch {
		case err == nil:
			s.remember(code, mod.Name, mod.FetchedAt)
			if now.Sub(mod.FetchedAt) < modRefreshInterval {
				return nil
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("load vehicle mod %s: %w", code, err)
		}
	}

	name, err := s.fetchModName(ctx, code)
	if err != nil {
		return fmt.Errorf("fetch vehicle mod %s: %w", code, err)
	}

	if s.db != nil {
		mod := model.VehicleMod{ID: code, Name: name, FetchedAt: now}
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&mod).Error
		if err != nil {
			return fmt.Errorf("save vehicle mod %s: %w", code, err)
		}
	}

	s.remember(code, name, now)
	s.cacheRedis(ctx, code, name)

	s.logger.Info("Vehicle mod name refreshed", zap.String("vehicle", code), zap.String("name", name))
	return nil
}

func (s *VehicleService) remember(code, name string, fetchedAt time.Time) {
	s.mu.Lock()
	s.cache[code] = modEntry{name: name, fetchedAt: fetchedAt}
	s.mu.Unlock()
}

func (s *VehicleService) cacheRedis(ctx context.Context, code, name string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, modCacheKeyPrefix+code, name, modRefreshInterval).Err(); err != nil {
		s.logger.Debug("Vehicle name cache write failed", zap.String("vehicle", code), zap.Error(err))
	}
}

func (s *VehicleService) fetchModName(ctx context.Context, code string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.modURL+code, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return ParseModName(io.LimitReader(resp.Body, modPageLimit))
}

// ParseModName extracts the text of the element with id "modName" from a mod page
func ParseModName(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	node := findByID(doc, "modName")
	if node == nil {
		return "", ErrModNameNotFound
	}

	var sb strings.Builder
	collectText(node, &sb)

	name := strings.TrimSpace(sb.String())
	if name == "" {
		return "", ErrModNameNotFound
	}
	return name, nil
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
