package bitewise

// DefaultSources is the outlet directory used when no settings file lists one.
// Bias ratings are left to the settings file.
var DefaultSources = []Source{
	{URL: "https://abcnews.go.com/", Name: "ABC News", Crawl: true},
	{URL: "https://apnews.com/", Name: "AP", Crawl: true},
	{URL: "https://arstechnica.com/", Name: "Ars Technica", Crawl: true},
	{URL: "https://fortune.com/", Name: "Fortune", Crawl: true},
	{URL: "https://mashable.com/", Name: "Mashable", Crawl: true},
	{URL: "https://nationalgeographic.com/", Name: "National Geographic", Crawl: true},
	{URL: "https://www.vice.com/", Name: "Vice", Crawl: true},
	{URL: "https://nymag.com/", Name: "New York Magazine", Crawl: true},
	{URL: "https://techcrunch.com/", Name: "TechCrunch", Crawl: true},
	{URL: "https://thehill.com/", Name: "The Hill", Crawl: true},
	{URL: "https://thenextweb.com/", Name: "The Next Web", Crawl: true},
	{URL: "https://time.com/", Name: "Time Magazine", Crawl: true},
	{URL: "https://www.aljazeera.com/", Name: "Al Jazeera", Crawl: true},
	{URL: "https://www.axios.com/", Name: "Axios", Crawl: true},
	{URL: "https://www.bbc.com/", Name: "BBC News", Crawl: true, Feed: "https://feeds.bbci.co.uk/news/rss.xml"},
	{URL: "https://www.bleacherreport.com/", Name: "Bleacher Report", Crawl: true},
	{URL: "https://www.bloomberg.com/", Name: "Bloomberg", Crawl: true},
	{URL: "https://www.breitbart.com/", Name: "Breitbart News", Crawl: true},
	{URL: "https://www.buzzfeed.com/", Name: "BuzzFeed News", Crawl: true},
	{URL: "https://www.cbsnews.com/", Name: "CBS News", Crawl: true},
	{URL: "https://www.ccn.com/", Name: "CCN", Crawl: true},
	{URL: "https://www.cnn.com/", Name: "CNN (Web News)", Crawl: true},
	{URL: "https://www.engadget.com/", Name: "Engadget", Crawl: true},
	{URL: "https://www.foxnews.com/", Name: "Fox Online News", Crawl: true},
	{URL: "https://www.huffingtonpost.com/", Name: "HuffPost", Crawl: true},
	{URL: "https://www.medicalnewstoday.com/", Name: "Medical News Today", Crawl: true},
	{URL: "https://www.msnbc.com/", Name: "MSNBC", Crawl: true},
	{URL: "https://www.mtv.com/news/", Name: "MTV News Online", Crawl: true},
	{URL: "https://www.nationalreview.com/", Name: "National Review", Crawl: true},
	{URL: "https://www.nbcnews.com/", Name: "NBCNews.com", Crawl: true},
	{URL: "https://www.newscientist.com/section/news/", Name: "New Scientist", Crawl: true},
	{URL: "https://www.newsweek.com/", Name: "Newsweek", Crawl: true},
	{URL: "https://www.nextbigfuture.com/", Name: "Next Big Future", Crawl: true},
	{URL: "https://www.npr.org/", Name: "NPR Online News", Crawl: true, Feed: "https://feeds.npr.org/1001/rss.xml"},
	{URL: "https://www.nytimes.com/", Name: "New York Times - News", Crawl: true},
	{URL: "https://www.politico.com/", Name: "Politico", Crawl: true},
	{URL: "https://www.reuters.com/", Name: "Reuters", Crawl: true},
	{URL: "https://www.theamericanconservative.com/", Name: "The American Conservative", Crawl: true},
	{URL: "https://www.theguardian.com/", Name: "The Guardian", Crawl: true, Feed: "https://www.theguardian.com/world/rss"},
	{URL: "https://www.theverge.com/", Name: "The Verge", Crawl: true},
	{URL: "https://www.usatoday.com/news/", Name: "USA TODAY", Crawl: true},
	{URL: "https://www.washingtonpost.com/", Name: "Washington Post", Crawl: true},
	{URL: "https://www.washingtontimes.com/", Name: "Washington Times", Crawl: true},
	{URL: "https://www.wired.com/", Name: "Wired", Crawl: true},
	{URL: "https://www.wsj.com/", Name: "Wall Street Journal - News", Crawl: true},
	{URL: "https://news.yahoo.com/", Name: "Yahoo! News", Crawl: true},
	{URL: "https://www.atlanticcouncil.org/", Name: "Atlantic Council", Crawl: true},
	{URL: "https://www.csmonitor.com/", Name: "Christian Science Monitor", Crawl: true},
	{URL: "https://www.foreignpolicy.com/", Name: "Foreign Policy", Crawl: true},
	{URL: "https://www.theatlantic.com/", Name: "The Atlantic", Crawl: true},
	{URL: "https://www.vox.com/", Name: "Vox", Crawl: true},
	{URL: "https://www.nature.com/news/", Name: "Nature", Crawl: true},
	{URL: "https://www.pbs.org/newshour/", Name: "PBS NewsHour", Crawl: true},
	{URL: "https://www.rollingstone.com/", Name: "RollingStone.com", Crawl: true},
	{URL: "https://www.esquire.com/news-politics/", Name: "Esquire", Crawl: true},
	{URL: "https://www.vogue.com/", Name: "Vogue", Crawl: true},
	{URL: "https://www.salon.com/", Name: "Salon", Crawl: true},
	{URL: "https://slate.com/", Name: "Slate", Crawl: true},
}
