package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func manifestWith(variants ...StreamVariant) *LiveManifest {
	return &LiveManifest{
		Platform: Douyu,
		RoomID:   "9999",
		Info:     RoomInfo{Title: "t", IsLiving: true},
		Variants: variants,
	}
}

func TestFinishManifestOrdering(t *testing.T) {
	m := finishManifest(manifestWith(
		StreamVariant{ID: "sd", Quality: 900, URL: "http://a/sd"},
		StreamVariant{ID: "best", Quality: QualityBest, URL: "http://a/best"},
		StreamVariant{ID: "hd", Quality: 2000, URL: "http://a/hd"},
	), DefaultResolveOptions())

	assert.Equal(t, []string{"best", "hd", "sd"}, variantIDs(m.Variants))
}

func TestFinishManifestDedupsIDs(t *testing.T) {
	m := finishManifest(manifestWith(
		StreamVariant{ID: "hd", Quality: 2000, URL: "http://a/1"},
		StreamVariant{ID: "hd", Quality: 2000, URL: "http://a/2"},
		StreamVariant{ID: "sd", Quality: 900, URL: "http://a/3"},
	), DefaultResolveOptions())

	assert.Equal(t, []string{"hd", "sd"}, variantIDs(m.Variants))
	assert.Equal(t, "http://a/1", m.Variants[0].URL)
}

func TestFinishManifestNotLiving(t *testing.T) {
	m := manifestWith(StreamVariant{ID: "hd", Quality: 2000, URL: "http://a/hd"})
	m.Info.IsLiving = false
	m = finishManifest(m, DefaultResolveOptions())
	assert.Empty(t, m.Variants)
}

func TestDropInaccessibleHighQualities(t *testing.T) {
	// 排在可播档位之前但没有 URL 的档位被移除。
	m := finishManifest(manifestWith(
		StreamVariant{ID: "uhd", Quality: 8000},
		StreamVariant{ID: "hd", Quality: 2000, URL: "http://a/hd"},
		StreamVariant{ID: "sd", Quality: 900, Rate: 2},
	), DefaultResolveOptions())

	assert.Equal(t, []string{"hd", "sd"}, variantIDs(m.Variants))
}

func TestDropInaccessibleDisabled(t *testing.T) {
	m := finishManifest(manifestWith(
		StreamVariant{ID: "uhd", Quality: 8000},
		StreamVariant{ID: "hd", Quality: 2000, URL: "http://a/hd"},
	), ResolveOptions{DropInaccessibleHighQualities: false})

	assert.Equal(t, []string{"uhd", "hd"}, variantIDs(m.Variants))
}

func TestDropInaccessibleNoURLAtAll(t *testing.T) {
	// 整个清单都未解析出 URL 时不做剔除。
	m := finishManifest(manifestWith(
		StreamVariant{ID: "uhd", Quality: 8000, Rate: 4},
		StreamVariant{ID: "hd", Quality: 2000, Rate: 2},
	), DefaultResolveOptions())

	assert.Equal(t, []string{"uhd", "hd"}, variantIDs(m.Variants))
}

func variantIDs(variants []StreamVariant) []string {
	ids := make([]string, 0, len(variants))
	for _, v := range variants {
		ids = append(ids, v.ID)
	}
	return ids
}
