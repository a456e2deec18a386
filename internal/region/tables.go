package region

// Rest-of-region buckets
const (
	BucketRestOfAfrica        = "Rest of Africa"
	BucketRestOfAsiaPacific   = "Rest of Asia Pacific"
	BucketRestOfCentralEurope = "Rest of Central & Eastern Europe"
	BucketRestOfLatinAmerica  = "Rest of Latin America"
	BucketRestOfMiddleEast    = "Rest of Middle East"
	BucketRestOfWesternEurope = "Rest of Western Europe"
)

// marketsByCallingCode lists the countries priced individually
var marketsByCallingCode = map[int]string{
	1:   "North America",
	7:   "Russia",
	20:  "Egypt",
	27:  "South Africa",
	31:  "Netherlands",
	33:  "France",
	34:  "Spain",
	39:  "Italy",
	44:  "United Kingdom",
	49:  "Germany",
	51:  "Peru",
	52:  "Mexico",
	54:  "Argentina",
	55:  "Brazil",
	56:  "Chile",
	57:  "Colombia",
	60:  "Malaysia",
	62:  "Indonesia",
	90:  "Turkey",
	91:  "India",
	92:  "Pakistan",
	234: "Nigeria",
	966: "Saudi Arabia",
	971: "United Arab Emirates",
	972: "Israel",
}

// bucketsByCallingCode groups the remaining countries into regional buckets
var bucketsByCallingCode = map[int]string{
	// Africa
	211: BucketRestOfAfrica, 212: BucketRestOfAfrica, 213: BucketRestOfAfrica,
	216: BucketRestOfAfrica, 218: BucketRestOfAfrica, 220: BucketRestOfAfrica,
	221: BucketRestOfAfrica, 222: BucketRestOfAfrica, 223: BucketRestOfAfrica,
	224: BucketRestOfAfrica, 225: BucketRestOfAfrica, 226: BucketRestOfAfrica,
	227: BucketRestOfAfrica, 228: BucketRestOfAfrica, 229: BucketRestOfAfrica,
	231: BucketRestOfAfrica, 232: BucketRestOfAfrica, 233: BucketRestOfAfrica,
	235: BucketRestOfAfrica, 236: BucketRestOfAfrica, 237: BucketRestOfAfrica,
	240: BucketRestOfAfrica, 241: BucketRestOfAfrica, 242: BucketRestOfAfrica,
	243: BucketRestOfAfrica, 244: BucketRestOfAfrica, 245: BucketRestOfAfrica,
	248: BucketRestOfAfrica, 249: BucketRestOfAfrica, 250: BucketRestOfAfrica,
	251: BucketRestOfAfrica, 252: BucketRestOfAfrica, 253: BucketRestOfAfrica,
	254: BucketRestOfAfrica, 255: BucketRestOfAfrica, 256: BucketRestOfAfrica,
	257: BucketRestOfAfrica, 258: BucketRestOfAfrica, 260: BucketRestOfAfrica,
	261: BucketRestOfAfrica, 263: BucketRestOfAfrica, 264: BucketRestOfAfrica,
	265: BucketRestOfAfrica, 266: BucketRestOfAfrica, 267: BucketRestOfAfrica,
	268: BucketRestOfAfrica,

	// Asia Pacific
	61: BucketRestOfAsiaPacific, 63: BucketRestOfAsiaPacific, 64: BucketRestOfAsiaPacific,
	65: BucketRestOfAsiaPacific, 66: BucketRestOfAsiaPacific, 81: BucketRestOfAsiaPacific,
	82: BucketRestOfAsiaPacific, 84: BucketRestOfAsiaPacific, 86: BucketRestOfAsiaPacific,
	93: BucketRestOfAsiaPacific, 94: BucketRestOfAsiaPacific, 95: BucketRestOfAsiaPacific,
	670: BucketRestOfAsiaPacific, 673: BucketRestOfAsiaPacific, 675: BucketRestOfAsiaPacific,
	679: BucketRestOfAsiaPacific, 852: BucketRestOfAsiaPacific, 853: BucketRestOfAsiaPacific,
	855: BucketRestOfAsiaPacific, 856: BucketRestOfAsiaPacific, 880: BucketRestOfAsiaPacific,
	886: BucketRestOfAsiaPacific, 960: BucketRestOfAsiaPacific, 975: BucketRestOfAsiaPacific,
	976: BucketRestOfAsiaPacific, 977: BucketRestOfAsiaPacific, 992: BucketRestOfAsiaPacific,
	993: BucketRestOfAsiaPacific, 996: BucketRestOfAsiaPacific, 998: BucketRestOfAsiaPacific,

	// Central & Eastern Europe
	40: BucketRestOfCentralEurope, 48: BucketRestOfCentralEurope, 355: BucketRestOfCentralEurope,
	359: BucketRestOfCentralEurope, 370: BucketRestOfCentralEurope, 371: BucketRestOfCentralEurope,
	372: BucketRestOfCentralEurope, 373: BucketRestOfCentralEurope, 374: BucketRestOfCentralEurope,
	375: BucketRestOfCentralEurope, 380: BucketRestOfCentralEurope, 381: BucketRestOfCentralEurope,
	382: BucketRestOfCentralEurope, 385: BucketRestOfCentralEurope, 386: BucketRestOfCentralEurope,
	387: BucketRestOfCentralEurope, 389: BucketRestOfCentralEurope, 420: BucketRestOfCentralEurope,
	421: BucketRestOfCentralEurope, 36: BucketRestOfCentralEurope, 994: BucketRestOfCentralEurope,
	995: BucketRestOfCentralEurope,

	// Latin America
	53: BucketRestOfLatinAmerica, 58: BucketRestOfLatinAmerica, 501: BucketRestOfLatinAmerica,
	502: BucketRestOfLatinAmerica, 503: BucketRestOfLatinAmerica, 504: BucketRestOfLatinAmerica,
	505: BucketRestOfLatinAmerica, 506: BucketRestOfLatinAmerica, 507: BucketRestOfLatinAmerica,
	509: BucketRestOfLatinAmerica, 591: BucketRestOfLatinAmerica, 592: BucketRestOfLatinAmerica,
	593: BucketRestOfLatinAmerica, 594: BucketRestOfLatinAmerica, 595: BucketRestOfLatinAmerica,
	597: BucketRestOfLatinAmerica, 598: BucketRestOfLatinAmerica,

	// Middle East
	961: BucketRestOfMiddleEast, 962: BucketRestOfMiddleEast, 963: BucketRestOfMiddleEast,
	964: BucketRestOfMiddleEast, 965: BucketRestOfMiddleEast, 967: BucketRestOfMiddleEast,
	968: BucketRestOfMiddleEast, 970: BucketRestOfMiddleEast, 973: BucketRestOfMiddleEast,
	974: BucketRestOfMiddleEast, 98: BucketRestOfMiddleEast,

	// Western Europe
	30: BucketRestOfWesternEurope, 32: BucketRestOfWesternEurope, 41: BucketRestOfWesternEurope,
	43: BucketRestOfWesternEurope, 45: BucketRestOfWesternEurope, 46: BucketRestOfWesternEurope,
	47: BucketRestOfWesternEurope, 351: BucketRestOfWesternEurope, 352: BucketRestOfWesternEurope,
	353: BucketRestOfWesternEurope, 354: BucketRestOfWesternEurope, 356: BucketRestOfWesternEurope,
	357: BucketRestOfWesternEurope, 358: BucketRestOfWesternEurope,
}
