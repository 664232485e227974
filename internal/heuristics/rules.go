package heuristics

import "strings"

// libraryPrefixes 知名库的包前缀（小写比较）。命中后只跳过随机命名检查，关键字检查仍然执行
var libraryPrefixes = []string{
	"net/minecraft",
	"java/",
	"javax/",
	"jdk/",
	"com/mojang",
	"sun/",
	"com/sun/",
	"kotlin/",
	"kotlinx/",
	"scala/",
	"org/apache",
	"com/google",
	"org/lwjgl",
	"io/netty",
	"io/github",
	"com/github",
	"org/slf4j",
	"org/fusesource",
	"com/ibm/icu",
	"org/jctools",
	"org/openjdk",
	"oshi/",
	"com/sun/jna",
	"joptsimple",
	"javazoom",
	"com/gson",
	"it/unimi/dsi/fastutil",
	"io/jsonwebtoken",
	"org/yaml/snakeyaml",
	"org/spongepowered",
	"net/fabricmc",
	"net/minecraftforge",
	"org/objectweb/asm",
}

// librarySubstrings 路径中包含即视为库代码
var librarySubstrings = []string{
	"mixins",
	"libraries",
}

// knownShortTokens 合法的 2~3 字符路径段（国家代码、顶级域名、常见缩写）
var knownShortTokens = toSet([]string{
	"ru", "su", "ua", "us", "uk", "de", "fr", "cn", "jp", "kr", "br",
	"es", "it", "pl", "cz", "nl", "se", "no", "fi", "dk", "at",
	"ch", "be", "pt", "gr", "tr", "in", "au", "nz", "ca", "mx",
	"ar", "za", "eg", "il", "sg", "hk", "tw", "th", "vn", "id",
	"ph", "my", "ro", "hu", "bg", "sk", "hr", "si", "lt", "lv",
	"ee", "by", "kz", "ge", "am", "az", "md", "kg", "tj", "uz",
	"com", "org", "net", "io", "me", "cc", "co", "eu", "tv", "gg",
	"dev", "app", "pro", "biz", "edu", "gov", "mil", "int",
	"api", "lib", "sdk", "gui", "cmd", "cli", "db", "fx", "ui",
	"gl", "vk", "os", "cl", "dx", "qr", "win", "mac", "lx",
})

// DefaultSuspiciousKeywords 包路径中出现即高度可疑的关键字（路径段精确匹配）
var DefaultSuspiciousKeywords = []string{
	"stealer",
	"grabber",
	"tokengrabber",
	"keylogger",
	"rat",
	"backdoor",
	"exfil",
	"exfiltration",
	"malware",
	"trojan",
	"payload",
	"injector",
	"dropper",
	"cookiestealer",
	"passwordstealer",
	"webhook",
	"ratclient",
	"botnet",
	"miner",
	"cryptominer",
}

// IsLibraryName 是否位于知名库的包路径下
func IsLibraryName(internalName string) bool {
	lower := strings.ToLower(internalName)
	for _, prefix := range libraryPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	for _, sub := range librarySubstrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

// IsKnownShortToken 是否为合法的短路径段
func IsKnownShortToken(token string) bool {
	_, ok := knownShortTokens[strings.ToLower(token)]
	return ok
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
