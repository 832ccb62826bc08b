package statistics

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/VyaparLabs/OrderDesk/app/models"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/cache"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/database"
)

const (
	CacheKeyOrdersOpen    = "statistics:orders:open"
	CacheKeyOrdersToday   = "statistics:orders:today"
	CacheKeyOpenAmount    = "statistics:orders:open_amount"
	CacheKeyOpenOrderList = "orders:open:json"
	CacheExpiration       = 30 * time.Minute
)

// StatisticsData holds the dashboard statistics
type StatisticsData struct {
	OpenOrders  int
	TodayOrders int
	OpenAmount  float64
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache checks whether the cache is due for a refresh
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cache when the interval has elapsed
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next check to refresh
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// InvalidateOrderCaches drops every order-derived cache entry. Called by the
// watcher on every received change event, before any alert logic runs, so
// read queries never serve state older than the event that just arrived.
func InvalidateOrderCaches() {
	for _, key := range []string{CacheKeyOrdersOpen, CacheKeyOrdersToday, CacheKeyOpenAmount, CacheKeyOpenOrderList} {
		if err := cache.Delete(key); err != nil {
			log.Printf("Error invalidating cache key %s: %v", key, err)
		}
	}
	ResetCacheUpdateTimer()
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var openOrders int64
	if err := db.Model(&models.BuyOrder{}).
		Where("status NOT IN ?", []string{models.ORDER_STATUS_COMPLETED, models.ORDER_STATUS_CANCELLED}).
		Count(&openOrders).Error; err != nil {
		log.Printf("Error counting open orders: %v", err)
		return err
	}

	var todayOrders int64
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	if err := db.Model(&models.BuyOrder{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&todayOrders).Error; err != nil {
		log.Printf("Error counting today's orders: %v", err)
		return err
	}

	var openAmount float64
	if err := db.Model(&models.BuyOrder{}).
		Select("COALESCE(SUM(quantity * unit_price * (1 + fee_percent / 100)), 0)").
		Where("status NOT IN ?", []string{models.ORDER_STATUS_COMPLETED, models.ORDER_STATUS_CANCELLED}).
		Scan(&openAmount).Error; err != nil {
		log.Printf("Error summing open order amount: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyOrdersOpen, strconv.FormatInt(openOrders, 10), CacheExpiration); err != nil {
		log.Printf("Error caching open orders: %v", err)
		return err
	}
	if err := cache.Set(CacheKeyOrdersToday, strconv.FormatInt(todayOrders, 10), CacheExpiration); err != nil {
		log.Printf("Error caching today's orders: %v", err)
		return err
	}
	if err := cache.Set(CacheKeyOpenAmount, strconv.FormatFloat(openAmount, 'f', 2, 64), CacheExpiration); err != nil {
		log.Printf("Error caching open amount: %v", err)
		return err
	}

	return nil
}

// GetOpenOrders returns the number of open orders from cache or database
func GetOpenOrders() int {
	val, err := cache.Get(CacheKeyOrdersOpen)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.BuyOrder{}).
			Where("status NOT IN ?", []string{models.ORDER_STATUS_COMPLETED, models.ORDER_STATUS_CANCELLED}).
			Count(&count).Error; err != nil {
			log.Printf("Error counting open orders: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyOrdersOpen, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching open orders: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTodayOrders returns the number of orders created today from cache or database
func GetTodayOrders() int {
	val, err := cache.Get(CacheKeyOrdersToday)
	if err != nil {
		var count int64
		db := database.GetDB()
		today := time.Now().Format("2006-01-02")
		todayStart, _ := time.Parse("2006-01-02", today)
		todayEnd := todayStart.Add(24 * time.Hour)

		if err := db.Model(&models.BuyOrder{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&count).Error; err != nil {
			log.Printf("Error counting today's orders: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyOrdersToday, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching today's orders: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetOpenAmount returns the gross amount tied up in open orders
func GetOpenAmount() float64 {
	val, err := cache.Get(CacheKeyOpenAmount)
	if err != nil {
		if uerr := UpdateStatisticsCache(); uerr != nil {
			return 0
		}
		val, err = cache.Get(CacheKeyOpenAmount)
		if err != nil {
			return 0
		}
	}

	amount, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0
	}

	return amount
}

// GetStatisticsData returns all statistics data as StatisticsData structure
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		OpenOrders:  GetOpenOrders(),
		TodayOrders: GetTodayOrders(),
		OpenAmount:  GetOpenAmount(),
	}
}
