package amazon

// Static metadata for ASINs that predate the catalog integration. Keeps known
// books rendering with real titles and covers even when every lookup fails.
var fallbackData = map[string]Details{
	"B076YGKSBZ": {
		Title:    "The Secrets of Divine Love Journal: Insightful Reflections that Inspire Hope and Revive Faith",
		Author:   "A. Helwa",
		CoverURL: "https://m.media-amazon.com/images/I/71YgNhN9TQL._SY466_.jpg",
	},
	"B0C4BTQJTZ": {
		Title:    "Fourth Wing (The Empyrean Book 1)",
		Author:   "Rebecca Yarros",
		CoverURL: "https://m.media-amazon.com/images/I/91n7p-j5aqL._SY466_.jpg",
	},
	"B098T8FD1S": {
		Title:    "It Ends with Us: A Novel",
		Author:   "Colleen Hoover",
		CoverURL: "https://m.media-amazon.com/images/I/81s0B6NYXML._SY466_.jpg",
	},
	"B08N5WRWNW": {
		Title:    "The Silent Patient",
		Author:   "Alex Michaelides",
		CoverURL: "https://m.media-amazon.com/images/I/81JJPDNlxSL._SY466_.jpg",
	},
	"B073FZLLYS": {
		Title:    "Harry Potter and the Sorcerer's Stone",
		Author:   "J.K. Rowling",
		CoverURL: "https://m.media-amazon.com/images/I/71-++hbbERL._SY466_.jpg",
	},
}
