package masterdata

// Daily average station passengers (FY2022) for major Kansai stations.
var defaultStationPassengers = map[string]int{
	// Osaka, JR
	"大阪":   430000,
	"天王寺":  140000,
	"京橋":   130000,
	"鶴橋":   100000,
	"新大阪":  95000,
	"難波":   90000,
	"三ノ宮":  85000,
	"高槻":   65000,
	"茨木":   55000,
	"吹田":   45000,
	"堺市":   40000,
	"和泉府中": 25000,

	// Osaka, private lines and subway
	"梅田":   500000,
	"なんば":  320000,
	"淀屋橋":  150000,
	"本町":   140000,
	"心斎橋":  130000,
	"江坂":   80000,
	"千里中央": 75000,
	"豊中":   60000,
	"茨木市":  50000,
	"高槻市":  48000,
	"枚方市":  70000,
	"寝屋川市": 45000,
	"守口市":  40000,
	"門真市":  35000,
	"東大阪":  30000,
	"八尾":   28000,
	"藤井寺":  25000,
	"堺":    60000,
	"堺東":   55000,
	"中百舌鳥": 50000,
	"泉大津":  20000,
	"岸和田":  25000,
	"泉佐野":  30000,
	"関西空港": 35000,

	// Kyoto
	"京都":    350000,
	"四条":    100000,
	"烏丸":    95000,
	"河原町":   90000,
	"三条":    45000,
	"祇園四条":  40000,
	"山科":    35000,
	"二条":    30000,
	"丹波橋":   35000,
	"桃山御陵前": 20000,
	"宇治":    25000,
	"長岡京":   30000,
	"向日町":   20000,
	"亀岡":    15000,
	"福知山":   10000,
	"舞鶴":    5000,

	// Hyogo
	"三宮":    250000,
	"神戸":    120000,
	"元町":    80000,
	"西宮北口":  85000,
	"尼崎":    70000,
	"芦屋":    40000,
	"西宮":    50000,
	"宝塚":    45000,
	"川西能勢口": 40000,
	"伊丹":    35000,
	"明石":    55000,
	"加古川":   35000,
	"姫路":    65000,
	"三田":    25000,
	"垂水":    30000,
	"須磨":    20000,
	"住吉":    35000,
	"六甲道":   40000,
	"灘":     25000,
	"春日野道":  15000,
	"新開地":   45000,
	"湊川":    30000,
	"板宿":    25000,

	// Nara
	"奈良":    45000,
	"近鉄奈良":  50000,
	"大和西大寺": 55000,
	"学園前":   45000,
	"生駒":    50000,
	"王寺":    30000,
	"天理":    15000,
	"桜井":    12000,
	"橿原神宮前": 20000,
	"大和八木":  25000,
	"高田":    18000,

	// Shiga
	"大津":   40000,
	"草津":   45000,
	"守山":   25000,
	"野洲":   18000,
	"近江八幡": 20000,
	"彦根":   18000,
	"長浜":   12000,
	"米原":   15000,
	"膳所":   20000,
	"石山":   25000,
	"瀬田":   22000,
	"南草津":  35000,

	// Wakayama
	"和歌山":  35000,
	"和歌山市": 25000,
	"海南":   8000,
	"紀三井寺": 5000,
	"田辺":   6000,
	"白浜":   4000,
	"新宮":   3000,
	"橋本":   15000,
	"岩出":   8000,
}

// Spelling variants mapped to the canonical station name.
var defaultStationAliases = map[string]string{
	"JR難波":  "難波",
	"近鉄難波":  "なんば",
	"南海難波":  "なんば",
	"大阪難波":  "なんば",
	"地下鉄梅田": "梅田",
	"阪急梅田":  "梅田",
	"阪神梅田":  "梅田",
	"大阪梅田":  "梅田",
	"JR三ノ宮": "三宮",
	"阪急三宮":  "三宮",
	"阪神三宮":  "三宮",
	"神戸三宮":  "三宮",
	"JR京都":  "京都",
	"近鉄京都":  "京都",
	"阪急河原町": "河原町",
	"京阪三条":  "三条",
	"JR奈良":  "奈良",
	"天王寺駅前": "天王寺",
}

// Ward or district names that imply a station when no station name
// appears in the address.
var defaultAreaStations = []AreaStation{
	{Area: "中央区", Station: "本町"},
	{Area: "北区", Station: "梅田"},
	{Area: "天王寺", Station: "天王寺"},
	{Area: "難波", Station: "なんば"},
	{Area: "心斎橋", Station: "心斎橋"},
	{Area: "中京区", Station: "四条"},
	{Area: "下京区", Station: "京都"},
	{Area: "東山区", Station: "祇園四条"},
	{Area: "三宮", Station: "三宮"},
	{Area: "元町", Station: "元町"},
	{Area: "西宮", Station: "西宮北口"},
	{Area: "芦屋", Station: "芦屋"},
	{Area: "奈良市", Station: "近鉄奈良"},
	{Area: "大津市", Station: "大津"},
	{Area: "草津市", Station: "草津"},
	{Area: "和歌山市", Station: "和歌山"},
}

var defaultStationCoordinates = map[string]Coordinate{
	"大阪":    {34.7024, 135.4959},
	"新大阪":   {34.7334, 135.5001},
	"天王寺":   {34.6469, 135.5166},
	"京橋":    {34.6966, 135.5363},
	"鶴橋":    {34.6679, 135.5302},
	"難波":    {34.6659, 135.5013},
	"高槻":    {34.8512, 135.6175},
	"茨木":    {34.8168, 135.5688},
	"吹田":    {34.7612, 135.5173},
	"梅田":    {34.7006, 135.4982},
	"なんば":   {34.6659, 135.5013},
	"淀屋橋":   {34.6935, 135.5025},
	"本町":    {34.6830, 135.5005},
	"心斎橋":   {34.6752, 135.5006},
	"江坂":    {34.7512, 135.4997},
	"千里中央":  {34.8094, 135.4952},
	"豊中":    {34.7811, 135.4694},
	"枚方市":   {34.8145, 135.6509},
	"寝屋川市":  {34.7665, 135.6283},
	"守口市":   {34.7379, 135.5621},
	"堺":     {34.5735, 135.4829},
	"堺東":    {34.5686, 135.4784},
	"中百舌鳥":  {34.5449, 135.5015},
	"岸和田":   {34.4596, 135.3734},
	"京都":    {34.9857, 135.7588},
	"四条":    {35.0033, 135.7591},
	"河原町":   {35.0037, 135.7697},
	"三条":    {35.0096, 135.7711},
	"祇園四条":  {35.0037, 135.7720},
	"山科":    {34.9700, 135.8194},
	"二条":    {35.0106, 135.7435},
	"丹波橋":   {34.9400, 135.7611},
	"宇治":    {34.8906, 135.7999},
	"長岡京":   {34.9256, 135.6958},
	"三宮":    {34.6953, 135.1956},
	"神戸":    {34.6799, 135.1780},
	"元町":    {34.6878, 135.1853},
	"西宮北口":  {34.7440, 135.3614},
	"尼崎":    {34.7333, 135.4177},
	"芦屋":    {34.7284, 135.3032},
	"西宮":    {34.7350, 135.3424},
	"宝塚":    {34.7986, 135.3447},
	"伊丹":    {34.7815, 135.4003},
	"明石":    {34.6430, 134.9934},
	"姫路":    {34.8269, 134.6906},
	"垂水":    {34.6309, 135.0526},
	"六甲道":   {34.7128, 135.2352},
	"奈良":    {34.6852, 135.8199},
	"近鉄奈良":  {34.6818, 135.8196},
	"大和西大寺": {34.7049, 135.7836},
	"学園前":   {34.6942, 135.7521},
	"生駒":    {34.6897, 135.7015},
	"王寺":    {34.5945, 135.7068},
	"大和八木":  {34.5093, 135.7926},
	"大津":    {35.0015, 135.8596},
	"草津":    {35.0139, 135.9570},
	"守山":    {35.0584, 135.9943},
	"南草津":   {34.9896, 135.9608},
	"石山":    {34.9594, 135.9029},
	"彦根":    {35.2648, 136.2495},
	"和歌山":   {34.2329, 135.1908},
	"和歌山市":  {34.2274, 135.1658},
	"海南":    {34.1562, 135.2038},
	"橋本":    {34.3142, 135.6058},
}

// Average used-condominium price per square meter (yen).
var defaultMunicipalityPrices = map[string]float64{
	"大阪市中央区":  720000,
	"大阪市北区":   780000,
	"大阪市天王寺区": 620000,
	"大阪市浪速区":  580000,
	"大阪市西区":   680000,
	"大阪市港区":   400000,
	"大阪市此花区":  380000,
	"大阪市住之江区": 330000,
	"堺市堺区":    330000,
	"堺市北区":    360000,
	"豊中市":     420000,
	"吹田市":     480000,
	"高槻市":     350000,
	"枚方市":     300000,
	"茨木市":     380000,
	"八尾市":     250000,
	"東大阪市":    280000,
	"岸和田市":    220000,
	"京都市中京区":  720000,
	"京都市下京区":  650000,
	"京都市東山区":  560000,
	"京都市左京区":  520000,
	"京都市右京区":  400000,
	"京都市伏見区":  330000,
	"宇治市":     260000,
	"長岡京市":    350000,
	"亀岡市":     200000,
	"福知山市":    130000,
	"神戸市中央区":  620000,
	"神戸市東灘区":  520000,
	"神戸市灘区":   450000,
	"神戸市兵庫区":  330000,
	"神戸市長田区":  250000,
	"神戸市須磨区":  280000,
	"神戸市垂水区":  260000,
	"西宮市":     480000,
	"芦屋市":     550000,
	"尼崎市":     380000,
	"明石市":     320000,
	"姫路市":     250000,
	"宝塚市":     330000,
	"川西市":     280000,
	"伊丹市":     350000,
	"奈良市":     280000,
	"生駒市":     260000,
	"橿原市":     220000,
	"大和郡山市":   200000,
	"天理市":     170000,
	"桜井市":     160000,
	"王寺町":     240000,
	"大津市":     300000,
	"草津市":     360000,
	"守山市":     300000,
	"近江八幡市":   200000,
	"彦根市":     180000,
	"長浜市":     150000,
	"野洲市":     220000,
	"和歌山市":    220000,
	"田辺市":     140000,
	"橋本市":     150000,
	"海南市":     120000,
	"新宮市":     110000,
	"白浜町":     150000,
}

// Average price per square meter by prefecture, used when the
// municipality is not in the price table.
var defaultPrefecturePrices = map[string]float64{
	"大阪府":  450000,
	"京都府":  420000,
	"兵庫県":  380000,
	"奈良県":  300000,
	"滋賀県":  280000,
	"和歌山県": 250000,
}

// DefaultMunicipalityPrice applies when even the prefecture is unknown.
const DefaultMunicipalityPrice = 350000.0

// Flood, tsunami and landslide risk on a 0..5 scale.
var defaultHazardScores = map[string]HazardScores{
	"大阪市中央区":  {Flood: 2, Tsunami: 1, Landslide: 0},
	"大阪市北区":   {Flood: 2, Tsunami: 0, Landslide: 0},
	"大阪市天王寺区": {Flood: 1, Tsunami: 0, Landslide: 1},
	"大阪市浪速区":  {Flood: 2, Tsunami: 1, Landslide: 0},
	"大阪市西区":   {Flood: 3, Tsunami: 2, Landslide: 0},
	"大阪市港区":   {Flood: 3, Tsunami: 3, Landslide: 0},
	"大阪市此花区":  {Flood: 4, Tsunami: 4, Landslide: 0},
	"大阪市住之江区": {Flood: 3, Tsunami: 3, Landslide: 0},
	"堺市堺区":    {Flood: 2, Tsunami: 2, Landslide: 0},
	"堺市北区":    {Flood: 1, Tsunami: 0, Landslide: 1},
	"豊中市":     {Flood: 2, Tsunami: 0, Landslide: 1},
	"吹田市":     {Flood: 2, Tsunami: 0, Landslide: 1},
	"高槻市":     {Flood: 2, Tsunami: 0, Landslide: 2},
	"枚方市":     {Flood: 3, Tsunami: 0, Landslide: 2},
	"茨木市":     {Flood: 2, Tsunami: 0, Landslide: 2},
	"八尾市":     {Flood: 2, Tsunami: 0, Landslide: 1},
	"東大阪市":    {Flood: 2, Tsunami: 0, Landslide: 1},
	"岸和田市":    {Flood: 2, Tsunami: 2, Landslide: 1},
	"京都市中京区":  {Flood: 2, Tsunami: 0, Landslide: 0},
	"京都市下京区":  {Flood: 2, Tsunami: 0, Landslide: 0},
	"京都市東山区":  {Flood: 1, Tsunami: 0, Landslide: 2},
	"京都市左京区":  {Flood: 2, Tsunami: 0, Landslide: 3},
	"京都市右京区":  {Flood: 2, Tsunami: 0, Landslide: 2},
	"京都市伏見区":  {Flood: 3, Tsunami: 0, Landslide: 1},
	"宇治市":     {Flood: 3, Tsunami: 0, Landslide: 2},
	"長岡京市":    {Flood: 2, Tsunami: 0, Landslide: 1},
	"亀岡市":     {Flood: 3, Tsunami: 0, Landslide: 2},
	"福知山市":    {Flood: 4, Tsunami: 0, Landslide: 2},
	"神戸市中央区":  {Flood: 2, Tsunami: 2, Landslide: 2},
	"神戸市東灘区":  {Flood: 2, Tsunami: 1, Landslide: 3},
	"神戸市灘区":   {Flood: 2, Tsunami: 1, Landslide: 3},
	"神戸市兵庫区":  {Flood: 2, Tsunami: 2, Landslide: 2},
	"神戸市長田区":  {Flood: 2, Tsunami: 2, Landslide: 2},
	"神戸市須磨区":  {Flood: 2, Tsunami: 2, Landslide: 3},
	"神戸市垂水区":  {Flood: 2, Tsunami: 2, Landslide: 2},
	"西宮市":     {Flood: 2, Tsunami: 1, Landslide: 2},
	"芦屋市":     {Flood: 2, Tsunami: 1, Landslide: 3},
	"尼崎市":     {Flood: 3, Tsunami: 3, Landslide: 0},
	"明石市":     {Flood: 2, Tsunami: 2, Landslide: 1},
	"姫路市":     {Flood: 2, Tsunami: 2, Landslide: 1},
	"宝塚市":     {Flood: 2, Tsunami: 0, Landslide: 3},
	"川西市":     {Flood: 2, Tsunami: 0, Landslide: 2},
	"伊丹市":     {Flood: 2, Tsunami: 0, Landslide: 1},
	"奈良市":     {Flood: 2, Tsunami: 0, Landslide: 2},
	"生駒市":     {Flood: 1, Tsunami: 0, Landslide: 2},
	"橿原市":     {Flood: 2, Tsunami: 0, Landslide: 1},
	"大和郡山市":   {Flood: 2, Tsunami: 0, Landslide: 1},
	"天理市":     {Flood: 2, Tsunami: 0, Landslide: 1},
	"桜井市":     {Flood: 2, Tsunami: 0, Landslide: 2},
	"王寺町":     {Flood: 2, Tsunami: 0, Landslide: 1},
	"大津市":     {Flood: 2, Tsunami: 0, Landslide: 2},
	"草津市":     {Flood: 2, Tsunami: 0, Landslide: 1},
	"守山市":     {Flood: 2, Tsunami: 0, Landslide: 0},
	"近江八幡市":   {Flood: 3, Tsunami: 0, Landslide: 1},
	"彦根市":     {Flood: 2, Tsunami: 0, Landslide: 1},
	"長浜市":     {Flood: 3, Tsunami: 0, Landslide: 2},
	"野洲市":     {Flood: 2, Tsunami: 0, Landslide: 1},
	"和歌山市":    {Flood: 3, Tsunami: 4, Landslide: 2},
	"田辺市":     {Flood: 3, Tsunami: 3, Landslide: 3},
	"橋本市":     {Flood: 2, Tsunami: 0, Landslide: 2},
	"海南市":     {Flood: 3, Tsunami: 3, Landslide: 2},
	"新宮市":     {Flood: 3, Tsunami: 4, Landslide: 3},
	"白浜町":     {Flood: 2, Tsunami: 3, Landslide: 2},
}
