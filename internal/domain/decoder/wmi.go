package decoder

// wmiTable maps three-character World Manufacturer Identifiers to makes.
var wmiTable = map[string]string{
	"1HG": "Honda", "1HF": "Honda", "2HG": "Honda", "5FN": "Honda", "5J6": "Honda",
	"JHM": "Honda", "JHL": "Honda", "SHH": "Honda",
	"19U": "Acura", "JH4": "Acura",
	"1G1": "Chevrolet", "1GC": "Chevrolet", "2G1": "Chevrolet", "3G1": "Chevrolet", "KL1": "Chevrolet",
	"1G6": "Cadillac", "1GY": "Cadillac",
	"1GT": "GMC", "1GK": "GMC",
	"1G4": "Buick", "1G2": "Pontiac",
	"1FA": "Ford", "1FT": "Ford", "1FM": "Ford", "1FD": "Ford", "2FA": "Ford", "3FA": "Ford", "WF0": "Ford",
	"1LN": "Lincoln",
	"1C3": "Chrysler", "2C3": "Chrysler",
	"1C4": "Jeep", "1J4": "Jeep", "1J8": "Jeep",
	"1B3": "Dodge", "2B3": "Dodge", "1D7": "Dodge",
	"1C6": "Ram", "3C6": "Ram",
	"1N4": "Nissan", "1N6": "Nissan", "3N1": "Nissan", "JN1": "Nissan", "JN8": "Nissan", "5N1": "Nissan",
	"JNK": "Infiniti",
	"1VW": "Volkswagen", "3VW": "Volkswagen", "WVW": "Volkswagen", "WVG": "Volkswagen", "WV1": "Volkswagen", "WV2": "Volkswagen",
	"WAU": "Audi", "WA1": "Audi", "TRU": "Audi",
	"WBA": "BMW", "WBS": "BMW", "WBX": "BMW", "5UX": "BMW", "4US": "BMW",
	"WMW": "MINI",
	"WDB": "Mercedes-Benz", "WDD": "Mercedes-Benz", "WDC": "Mercedes-Benz", "W1K": "Mercedes-Benz", "4JG": "Mercedes-Benz", "55S": "Mercedes-Benz",
	"WME": "smart",
	"WP0": "Porsche", "WP1": "Porsche",
	"W0L": "Opel",
	"JT2": "Toyota", "JTD": "Toyota", "JTE": "Toyota", "JTM": "Toyota", "JTN": "Toyota",
	"4T1": "Toyota", "4T3": "Toyota", "5TD": "Toyota", "5TF": "Toyota", "2T1": "Toyota",
	"JTH": "Lexus", "2T2": "Lexus",
	"5YJ": "Tesla", "7SA": "Tesla", "LRW": "Tesla", "XP7": "Tesla",
	"KMH": "Hyundai", "5NP": "Hyundai", "MAL": "Hyundai",
	"KNA": "Kia", "KND": "Kia", "5XY": "Kia",
	"JM1": "Mazda", "JM3": "Mazda", "1YV": "Mazda",
	"JF1": "Subaru", "JF2": "Subaru", "4S3": "Subaru", "4S4": "Subaru",
	"JA3": "Mitsubishi", "JA4": "Mitsubishi", "ML3": "Mitsubishi",
	"JS1": "Suzuki", "JS2": "Suzuki",
	"JYA": "Yamaha", "JKA": "Kawasaki",
	"YV1": "Volvo", "YV4": "Volvo", "7JR": "Volvo",
	"YS3": "Saab",
	"SAJ": "Jaguar", "SAL": "Land Rover", "SCC": "Lotus", "SCF": "Aston Martin", "SCA": "Rolls-Royce", "SCB": "Bentley",
	"ZFF": "Ferrari", "ZAR": "Alfa Romeo", "ZFA": "Fiat", "ZHW": "Lamborghini", "ZAM": "Maserati",
	"VF1": "Renault", "VF3": "Peugeot", "VF7": "Citroën",
	"VSS": "SEAT", "TMB": "Škoda",
	"1M8": "Motor Coach Industries",
	"1HD": "Harley-Davidson",
	"93H": "Honda", "9BW": "Volkswagen",
}

// wmiPrefixTable is consulted when the full WMI is unknown; it maps the
// first two characters of manufacturers with a single country code block.
var wmiPrefixTable = map[string]string{
	"JH": "Honda",
	"JT": "Toyota",
	"JN": "Nissan",
	"JM": "Mazda",
	"JF": "Subaru",
	"KM": "Hyundai",
	"KN": "Kia",
	"WB": "BMW",
	"WD": "Mercedes-Benz",
	"WP": "Porsche",
	"YV": "Volvo",
	"ZF": "Ferrari",
}
