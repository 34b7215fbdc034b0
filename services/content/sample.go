package content

import (
	"context"
	"fmt"
	"log"

	"tamilstream/models"
)

// SampleMovies is the starter movie catalog used when a fresh store is seeded.
var SampleMovies = []models.Content{
	{
		ID:          "tt15354916",
		IMDBID:      "tt15354916",
		Title:       "Ponniyin Selvan I",
		Type:        models.ContentTypeMovie,
		Year:        2022,
		Description: "Vandiyathevan, a clever and brave warrior, goes on a mission to deliver a message to the Chola king.",
		Genres:      []string{"Action", "Drama", "History"},
		Rating:      7.5,
		Runtime:     "167 min",
	},
	{
		ID:          "tt21064584",
		IMDBID:      "tt21064584",
		Title:       "Jailer",
		Type:        models.ContentTypeMovie,
		Year:        2023,
		Description: "A retired jailer goes on a rampage when his son, an honest cop, is killed by a crime syndicate.",
		Genres:      []string{"Action", "Thriller"},
		Rating:      7.0,
		Runtime:     "168 min",
	},
	{
		ID:          "tt9900782",
		IMDBID:      "tt9900782",
		Title:       "Vikram",
		Type:        models.ContentTypeMovie,
		Year:        2022,
		Description: "A special agent investigates a murder committed by a masked group of serial killers.",
		Genres:      []string{"Action", "Crime", "Thriller"},
		Rating:      8.3,
		Runtime:     "174 min",
	},
	{
		ID:          "tt6788942",
		IMDBID:      "tt6788942",
		Title:       "Master",
		Type:        models.ContentTypeMovie,
		Year:        2021,
		Description: "An alcoholic professor is sent to a juvenile school, where he clashes with a gangster.",
		Genres:      []string{"Action", "Thriller"},
		Rating:      7.2,
		Runtime:     "179 min",
	},
	{
		ID:          "tt10869796",
		IMDBID:      "tt10869796",
		Title:       "Leo",
		Type:        models.ContentTypeMovie,
		Year:        2023,
		Description: "A cafe owner with a dark past takes on a group of gangsters.",
		Genres:      []string{"Action", "Crime", "Drama"},
		Rating:      6.6,
		Runtime:     "164 min",
	},
	{
		ID:          "tt27524176",
		IMDBID:      "tt27524176",
		Title:       "GOAT",
		Type:        models.ContentTypeMovie,
		Year:        2024,
		Description: "A retired special agent returns to action when his family is threatened.",
		Genres:      []string{"Action", "Thriller"},
		Rating:      6.5,
		Runtime:     "170 min",
	},
}

// SampleSeries is the starter series catalog; every season-one episode is listed.
var SampleSeries = []models.Content{
	{
		ID:          "tt15744286",
		IMDBID:      "tt15744286",
		Title:       "Suzhal: The Vortex",
		Type:        models.ContentTypeSeries,
		Year:        2022,
		Description: "A missing child case in a small town uncovers dark secrets and hidden truths.",
		Genres:      []string{"Crime", "Drama", "Mystery"},
		Rating:      7.3,
		Runtime:     "45 min",
		Videos:      seasonOne("tt15744286", 8),
	},
	{
		ID:          "tt21245112",
		IMDBID:      "tt21245112",
		Title:       "The Night Manager",
		Type:        models.ContentTypeSeries,
		Year:        2023,
		Description: "A hotel night manager becomes an undercover agent to infiltrate an arms dealer's network.",
		Genres:      []string{"Action", "Drama", "Thriller"},
		Rating:      7.8,
		Runtime:     "50 min",
		Videos:      seasonOne("tt21245112", 7),
	},
	{
		ID:          "tt11427016",
		IMDBID:      "tt11427016",
		Title:       "November Story",
		Type:        models.ContentTypeSeries,
		Year:        2021,
		Description: "A young woman fights to prove her father's innocence in a murder case.",
		Genres:      []string{"Crime", "Mystery", "Thriller"},
		Rating:      8.0,
		Runtime:     "45 min",
		Videos:      seasonOne("tt11427016", 7),
	},
}

// SampleTorrents holds one release per sample title.
var SampleTorrents = []models.Torrent{
	{ID: "torrent_1", ContentID: "tt15354916", InfoHash: "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2", Title: "Ponniyin.Selvan.I.2022.Tamil.1080p.BluRay.x264", Size: 4294967296, SizeReadable: "4.0 GB", Quality: models.QualityFullHD, Seeders: 150, Leechers: 20, Source: "TamilMV", Magnet: sampleMagnet("a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2", "Ponniyin.Selvan.I.2022.Tamil.1080p.BluRay.x264")},
	{ID: "torrent_2", ContentID: "tt21064584", InfoHash: "b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3", Title: "Jailer.2023.Tamil.1080p.WEB-DL.x264", Size: 3221225472, SizeReadable: "3.0 GB", Quality: models.QualityFullHD, Seeders: 200, Leechers: 30, Source: "TamilBlasters", Magnet: sampleMagnet("b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3", "Jailer.2023.Tamil.1080p.WEB-DL.x264")},
	{ID: "torrent_3", ContentID: "tt9900782", InfoHash: "c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4", Title: "Vikram.2022.Tamil.2160p.4K.WEB-DL.x265", Size: 8589934592, SizeReadable: "8.0 GB", Quality: models.Quality4K, Seeders: 100, Leechers: 15, Source: "TamilMV", Magnet: sampleMagnet("c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4", "Vikram.2022.Tamil.2160p.4K.WEB-DL.x265")},
	{ID: "torrent_4", ContentID: "tt6788942", InfoHash: "d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5", Title: "Master.2021.Tamil.720p.WEB-DL.x264", Size: 1610612736, SizeReadable: "1.5 GB", Quality: models.QualityHD, Seeders: 80, Leechers: 10, Source: "TamilBlasters", Magnet: sampleMagnet("d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5", "Master.2021.Tamil.720p.WEB-DL.x264")},
	{ID: "torrent_5", ContentID: "tt10869796", InfoHash: "e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6", Title: "Leo.2023.Tamil.1080p.BluRay.x264", Size: 4294967296, SizeReadable: "4.0 GB", Quality: models.QualityFullHD, Seeders: 250, Leechers: 40, Source: "TamilMV", Magnet: sampleMagnet("e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6", "Leo.2023.Tamil.1080p.BluRay.x264")},
	{ID: "torrent_6", ContentID: "tt27524176", InfoHash: "f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1", Title: "GOAT.2024.Tamil.1080p.WEB-DL.x264", Size: 3500000000, SizeReadable: "3.3 GB", Quality: models.QualityFullHD, Seeders: 300, Leechers: 50, Source: "TamilMV", Magnet: sampleMagnet("f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1", "GOAT.2024.Tamil.1080p.WEB-DL.x264")},
	{ID: "torrent_7", ContentID: "tt15744286", InfoHash: "1a2b3c4d5e6f1a2b3c4d5e6f1a2b3c4d5e6f1a2b", Title: "Suzhal.The.Vortex.S01.Complete.Tamil.1080p.AMZN.WEB-DL", Size: 5000000000, SizeReadable: "4.7 GB", Quality: models.QualityFullHD, Seeders: 120, Leechers: 15, Source: "TamilMV", Magnet: sampleMagnet("1a2b3c4d5e6f1a2b3c4d5e6f1a2b3c4d5e6f1a2b", "Suzhal.The.Vortex.S01.Complete.Tamil.1080p.AMZN.WEB-DL")},
	{ID: "torrent_8", ContentID: "tt21245112", InfoHash: "2b3c4d5e6f1a2b3c4d5e6f1a2b3c4d5e6f1a2b3c", Title: "The.Night.Manager.S01.Complete.Tamil.1080p.DSNP.WEB-DL", Size: 6000000000, SizeReadable: "5.6 GB", Quality: models.QualityFullHD, Seeders: 180, Leechers: 25, Source: "TamilMV", Magnet: sampleMagnet("2b3c4d5e6f1a2b3c4d5e6f1a2b3c4d5e6f1a2b3c", "The.Night.Manager.S01.Complete.Tamil.1080p.DSNP.WEB-DL")},
	{ID: "torrent_9", ContentID: "tt11427016", InfoHash: "3c4d5e6f1a2b3c4d5e6f1a2b3c4d5e6f1a2b3c4d", Title: "November.Story.S01.Complete.Tamil.1080p.DSNP.WEB-DL", Size: 4500000000, SizeReadable: "4.2 GB", Quality: models.QualityFullHD, Seeders: 90, Leechers: 12, Source: "TamilBlasters", Magnet: sampleMagnet("3c4d5e6f1a2b3c4d5e6f1a2b3c4d5e6f1a2b3c4d", "November.Story.S01.Complete.Tamil.1080p.DSNP.WEB-DL")},
}

func seasonOne(contentID string, episodes int) []models.Video {
	videos := make([]models.Video, 0, episodes)
	for ep := 1; ep <= episodes; ep++ {
		videos = append(videos, models.Video{
			ID:      fmt.Sprintf("%s:1:%d", contentID, ep),
			Title:   fmt.Sprintf("Episode %d", ep),
			Season:  1,
			Episode: ep,
		})
	}
	return videos
}

func sampleMagnet(hash, name string) string {
	return "magnet:?xt=urn:btih:" + hash + "&dn=" + name
}

// Seed loads the sample catalog into repo when it holds no content yet. It returns the
// number of content items written.
func Seed(ctx context.Context, repo Repository) (int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count content: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	written := 0
	for _, group := range [][]models.Content{SampleMovies, SampleSeries} {
		for _, item := range group {
			if err := repo.UpsertContent(ctx, item); err != nil {
				return written, fmt.Errorf("seed %s: %w", item.ID, err)
			}
			written++
		}
	}
	for _, t := range SampleTorrents {
		if _, err := repo.AddTorrent(ctx, t); err != nil {
			return written, fmt.Errorf("seed torrent %s: %w", t.ID, err)
		}
	}
	log.Printf("[content] seeded %d sample titles and %d torrents", written, len(SampleTorrents))
	return written, nil
}
