package controllers

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/amaumene/strmarr/internal/metadata"
	"github.com/amaumene/strmarr/internal/models"
	"github.com/amaumene/strmarr/internal/services/torbox"
	"github.com/sirupsen/logrus"
)

const (
	listPageSize = 1000

	// bounds search-API concurrency while metadata scanning is enabled
	metadataMaxWorkers = 2
)

// FetchController pages through the remote download list and fans
// file-processing out across a bounded worker pool
type FetchController struct {
	torboxClient *torbox.Client
	processor    *Processor
	cache        *metadata.Cache
	scanMetadata bool
	logger       *logrus.Logger
}

// NewFetchController creates a fetch controller
func NewFetchController(torboxClient *torbox.Client, processor *Processor, cache *metadata.Cache, scanMetadata bool, logger *logrus.Logger) *FetchController {
	return &FetchController{
		torboxClient: torboxClient,
		processor:    processor,
		cache:        cache,
		scanMetadata: scanMetadata,
		logger:       logger,
	}
}

type filePair struct {
	item torbox.Download
	file torbox.DownloadFile
}

// FetchDownloads lists all items of one download type and processes every
// file of every cached item. Per-file failures are logged and skipped; a
// listing failure at any page fails the whole type.
func (c *FetchController) FetchDownloads(ctx context.Context, downloadType models.DownloadType) ([]*models.MediaRecord, bool, string) {
	var items []torbox.Download
	offset := 0

	for {
		page, err := c.torboxClient.ListDownloads(ctx, downloadType, listPageSize, offset)
		if err != nil {
			c.logger.WithError(err).WithField("type", downloadType).Error("Failed to fetch download list")
			return nil, false, fmt.Sprintf("Error fetching %s at offset %d: %v", downloadType, offset, err)
		}
		if len(page) == 0 {
			break
		}
		items = append(items, page...)
		offset += listPageSize
		if len(page) < listPageSize {
			break
		}
	}

	if len(items) == 0 {
		return nil, true, fmt.Sprintf("No %s found.", downloadType)
	}

	c.logger.WithFields(logrus.Fields{
		"type":  downloadType,
		"count": len(items),
	}).Debug("Fetched download items from API")

	if c.scanMetadata {
		c.cache.PruneExpired()
	}

	var pairs []filePair
	for _, item := range items {
		if !item.Cached {
			continue
		}
		for _, file := range item.Files {
			pairs = append(pairs, filePair{item: item, file: file})
		}
	}

	workers := c.workerCount()
	c.logger.WithFields(logrus.Fields{
		"type":    downloadType,
		"files":   len(pairs),
		"workers": workers,
	}).Info("Processing files with parallel workers")

	jobs := make(chan filePair)
	results := make(chan *models.MediaRecord)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pair := range jobs {
				record, err := c.processor.ProcessFile(ctx, pair.item, pair.file, downloadType)
				if err != nil {
					c.logger.WithError(err).WithFields(logrus.Fields{
						"file": pair.file.ShortName,
						"item": pair.item.Name,
					}).Error("Failed to process file")
					continue
				}
				if record != nil {
					results <- record
				}
			}
		}()
	}

	go func() {
		for _, pair := range pairs {
			jobs <- pair
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var records []*models.MediaRecord
	for record := range results {
		records = append(records, record)
	}

	return records, true, fmt.Sprintf("%s fetched successfully.", capitalize(string(downloadType)))
}

// workerCount sizes the pool at 2xCPU-1, capped when metadata scanning is on
func (c *FetchController) workerCount() int {
	workers := runtime.NumCPU()*2 - 1
	if workers < 1 {
		workers = 1
	}
	if c.scanMetadata && workers > metadataMaxWorkers {
		workers = metadataMaxWorkers
	}
	return workers
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
