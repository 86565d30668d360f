package ranking

// SampleConfig is the annotated configuration written by `astrorank init`.
const SampleConfig = `# astrorank configuration

images:
  # eligible file extensions, matched case-insensitively
  extensions: [".jpg"]
  # also read HHMMSS.SS+DDMMSS.SS coordinates from file names
  sexagesimal: false

output:
  rankings: rankings.txt
  # next: go to the following image after a rank is submitted
  # unranked: go to the next image without a rank
  navigation: next

# action -> keys. Several keys can be given as a list or separated by commas.
keys:
  quit: q
  zoom_in: "plus,equal"
  zoom_out: minus
  first: [shift+left, shift+up]
  skip_unranked: [shift+right, shift+down]

# key -> rank. The valid ranks are exactly the values listed here.
ranks:
  "0": 0
  "1": 1
  "2": 2
  "3": 3
  backtick: 0

browser:
  enabled: true
  url_template: "https://www.legacysurvey.org/viewer/?ra={ra}&dec={dec}&layer=ls-dr10&zoom=16"

secondary_download:
  enabled: true
  name: WISE
  url_template: "https://www.legacysurvey.org/viewer/fits-cutout?ra={ra}&dec={dec}&layer=unwise-neo7&size=512&pixscale=2.75&bands=12"
  viewer_url_template: "https://www.legacysurvey.org/viewer/?ra={ra}&dec={dec}&layer=unwise-neo7&zoom=14"
  # extension index -> output channels
  extensions:
    "0": [R, G]
    "1": [B]
  cache_dir: secondary
  timeout: 30s
  precision: 6
  format: jpeg
  quality: 90
  flip_vertical: true
  stretch:
    mode: linear
    low: 1
    high: 99
    q: 8
`
