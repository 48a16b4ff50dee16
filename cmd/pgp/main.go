// Command pgp is the CLI driver binding files, passphrases, and flags to
// the openpgp package's pipeline entry points (spec 6.2).
//
// Grounded directly on nullprogram.com/x/passphrase2pgp's passphrase2pgp.go:
// the same config-struct-from-optparse shape, the same fatal() helper, the
// same $REALNAME/$EMAIL/$KEYID environment fallback for key generation, and
// terminal-read passphrase prompting, widened from its single "-K/-S/-T"
// command set to the full encrypt/decrypt/sign/verify/keygen surface spec
// 6.2 names.
package main

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/ssh/terminal"

	"nullprogram.com/x/openpgp/openpgp"
	"nullprogram.com/x/openpgp/packet"
	"nullprogram.com/x/optparse"
)

const (
	cmdKeygen = iota
	cmdEncrypt
	cmdDecrypt
	cmdSign
	cmdVerify
	cmdClearsign
)

// fatal prints the message like fmt.Printf and exits 1, matching the
// teacher's fatal() helper.
func fatal(format string, args ...interface{}) {
	buf := bytes.NewBufferString("pgp: ")
	fmt.Fprintf(buf, format, args...)
	buf.WriteRune('\n')
	os.Stderr.Write(buf.Bytes())
	os.Exit(1)
}

func warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "pgp: warning: "+format+"\n", args...)
}

type config struct {
	cmd  int
	args []string

	armor      bool
	check      []byte
	hashAlg    byte
	recipients []string
	secretFile string
	input      string
	output     string
	subkey     bool
	created    int64
	uid        string
	verbose    bool
}

func usage(w io.Writer) {
	bw := bufio.NewWriter(w)
	i := "  "
	f := func(s ...interface{}) { fmt.Fprintln(bw, s...) }
	f("Usage: pgp <command> [options] [files...]")
	f("Commands:")
	f(i, "-K, --keygen           generate a key")
	f(i, "-E, --encrypt          encrypt (to --recipient keys, or symmetric)")
	f(i, "-D, --decrypt          decrypt")
	f(i, "-S, --sign             produce a detached signature")
	f(i, "-V, --verify           verify a detached signature")
	f(i, "-T, --clearsign        produce a cleartext signature")
	f("Options:")
	f(i, "-a, --armor            encode/expect ASCII armor")
	f(i, "-c, --check KEYID      require last Key ID bytes to match")
	f(i, "-k, --key FILE         secret (or, for verify, public) key file")
	f(i, "-r, --recipient FILE   add a recipient public key file (--encrypt)")
	f(i, "-p, --passphrase-file FILE  read passphrase from file instead of terminal")
	f(i, "-u, --uid USERID       user ID for key generation")
	f(i, "-s, --subkey           also generate an encryption subkey")
	f(i, "-t, --time SECONDS     key/signature creation time (default: now)")
	f(i, "-o, --output FILE      write to FILE instead of stdout")
	f(i, "-v, --verbose          print additional information")
	f(i, "-h, --help             print this help message")
	bw.Flush()
}

func parse() *config {
	conf := config{created: time.Now().Unix()}

	options := []optparse.Option{
		{"keygen", 'K', optparse.KindNone},
		{"encrypt", 'E', optparse.KindNone},
		{"decrypt", 'D', optparse.KindNone},
		{"sign", 'S', optparse.KindNone},
		{"verify", 'V', optparse.KindNone},
		{"clearsign", 'T', optparse.KindNone},

		{"armor", 'a', optparse.KindNone},
		{"check", 'c', optparse.KindRequired},
		{"key", 'k', optparse.KindRequired},
		{"recipient", 'r', optparse.KindRequired},
		{"passphrase-file", 'p', optparse.KindRequired},
		{"uid", 'u', optparse.KindRequired},
		{"subkey", 's', optparse.KindNone},
		{"time", 't', optparse.KindRequired},
		{"output", 'o', optparse.KindRequired},
		{"verbose", 'v', optparse.KindNone},
		{"help", 'h', optparse.KindNone},
	}

	var cmdSeen bool
	results, rest, err := optparse.Parse(options, os.Args)
	if err != nil {
		usage(os.Stderr)
		fatal("%s", err)
	}
	for _, result := range results {
		switch result.Long {
		case "keygen":
			conf.cmd, cmdSeen = cmdKeygen, true
		case "encrypt":
			conf.cmd, cmdSeen = cmdEncrypt, true
		case "decrypt":
			conf.cmd, cmdSeen = cmdDecrypt, true
		case "sign":
			conf.cmd, cmdSeen = cmdSign, true
		case "verify":
			conf.cmd, cmdSeen = cmdVerify, true
		case "clearsign":
			conf.cmd, cmdSeen = cmdClearsign, true

		case "armor":
			conf.armor = true
		case "check":
			check, err := hex.DecodeString(result.Optarg)
			if err != nil {
				fatal("--check (-c): %s: %q", err, result.Optarg)
			}
			conf.check = check
		case "key":
			conf.secretFile = result.Optarg
		case "recipient":
			conf.recipients = append(conf.recipients, result.Optarg)
		case "passphrase-file":
			conf.input = result.Optarg
		case "uid":
			conf.uid = result.Optarg
			if len(conf.uid) > 255 {
				fatal("user ID length must be <= 255 bytes")
			}
			if !utf8.ValidString(conf.uid) {
				fatal("user ID must be valid UTF-8")
			}
		case "subkey":
			conf.subkey = true
		case "time":
			t, err := strconv.ParseUint(result.Optarg, 10, 32)
			if err != nil {
				fatal("--time (-t): %s", err)
			}
			conf.created = int64(t)
		case "output":
			conf.output = result.Optarg
		case "verbose":
			conf.verbose = true
		case "help":
			usage(os.Stdout)
			os.Exit(0)
		}
	}

	if !cmdSeen {
		usage(os.Stderr)
		fatal("a command is required")
	}

	if conf.cmd == cmdKeygen && conf.uid == "" {
		if email := os.Getenv("EMAIL"); email != "" {
			if realname := os.Getenv("REALNAME"); realname != "" {
				conf.uid = fmt.Sprintf("%s <%s>", realname, email)
			}
		}
		if conf.uid == "" {
			fatal("--uid required (or $REALNAME and $EMAIL)")
		}
	}

	if conf.check == nil {
		if check, err := hex.DecodeString(os.Getenv("KEYID")); err == nil {
			conf.check = check
		}
	}

	conf.args = rest
	return &conf
}

// readPassphrase reads a passphrase either from --passphrase-file's first
// line or, interactively, from the terminal with no echo.
func readPassphrase(conf *config) ([]byte, error) {
	if conf.input != "" {
		return firstLine(conf.input)
	}
	fmt.Fprint(os.Stderr, "passphrase: ")
	pass, err := terminal.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return pass, nil
}

// firstLine returns the first line of filename, excluding \r and \n.
func firstLine(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	if !s.Scan() {
		if err := s.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return s.Bytes(), nil
}

func readAll(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return ioutil.ReadFile(path)
}

func writeOutput(conf *config, data []byte) {
	w := os.Stdout
	if conf.output != "" {
		f, err := os.Create(conf.output)
		if err != nil {
			fatal("%s", err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(data); err != nil {
		fatal("%s", err)
	}
}

func loadSecretKey(conf *config) *openpgp.SecretKey {
	if conf.secretFile == "" {
		fatal("--key (-k) is required")
	}
	f, err := os.Open(conf.secretFile)
	if err != nil {
		fatal("%s", err)
	}
	defer f.Close()

	var r io.Reader = f
	if conf.armor {
		decoded, err := openpgp.Decode(f)
		if err != nil {
			fatal("%s: %s", conf.secretFile, err)
		}
		r = bytes.NewReader(decoded.Data)
	}
	container, err := openpgp.ParseSecretKeyContainer(r)
	if err != nil {
		fatal("%s: %s", conf.secretFile, err)
	}

	if container.Primary.Ciphertext != nil {
		passphrase, err := readPassphrase(conf)
		if err != nil {
			fatal("%s", err)
		}
		if err := container.Primary.Unlock(passphrase, 0); err != nil {
			fatal("%s", err)
		}
		for _, sub := range container.Subkeys {
			if sub.Secret != nil && sub.Secret.Ciphertext != nil {
				if err := sub.Secret.Unlock(passphrase, 0); err != nil {
					fatal("%s", err)
				}
			}
		}
	}
	return container
}

func loadPublicKey(path string, armored bool) *openpgp.PublicKey {
	f, err := os.Open(path)
	if err != nil {
		fatal("%s", err)
	}
	defer f.Close()

	var r io.Reader = f
	if armored {
		decoded, err := openpgp.Decode(f)
		if err != nil {
			fatal("%s: %s", path, err)
		}
		r = bytes.NewReader(decoded.Data)
	}
	container, err := openpgp.ParsePublicKeyContainer(r)
	if err != nil {
		fatal("%s: %s", path, err)
	}
	return container
}

func checkKeyID(conf *config, pub *packet.PublicKey) {
	if len(conf.check) == 0 {
		return
	}
	id := pub.KeyID()
	if len(conf.check) > len(id) || !bytes.Equal(conf.check, id[len(id)-len(conf.check):]) {
		fatal("key ID does not match --check (-c)")
	}
}

func doKeygen(conf *config) {
	var passphrase []byte
	if conf.input != "" || isTerminal() {
		p, err := readPassphrase(conf)
		if err != nil {
			fatal("%s", err)
		}
		passphrase = p
	}

	opt := openpgp.KeyGenOptions{
		UserID:       conf.uid,
		CreationTime: uint32(conf.created),
		Passphrase:   passphrase,
	}
	if conf.subkey {
		opt.SubkeyPKA = packet.PKARSAEncryptSign
	}

	container, err := openpgp.GenerateKey(opt)
	if err != nil {
		fatal("%s", err)
	}
	checkKeyID(conf, container.Primary.Public)
	if conf.verbose {
		id := container.Primary.Public.KeyID()
		fmt.Fprintf(os.Stderr, "Key ID: %X\n", id)
	}

	var buf bytes.Buffer
	if err := container.Write(&buf); err != nil {
		fatal("%s", err)
	}
	output := buf.Bytes()
	if conf.armor {
		var armored bytes.Buffer
		blockType := openpgp.BlockPrivateKey
		if err := openpgp.Encode(&armored, blockType, nil, output); err != nil {
			fatal("%s", err)
		}
		output = armored.Bytes()
	}
	writeOutput(conf, output)
}

func encryptOptionsFrom(conf *config) openpgp.EncryptOptions {
	return openpgp.EncryptOptions{
		CreationTime: uint32(conf.created),
		Filename:     filenameFor(conf),
	}
}

func filenameFor(conf *config) string {
	if len(conf.args) == 1 && conf.args[0] != "-" {
		return conf.args[0]
	}
	return ""
}

func doEncrypt(conf *config) {
	var data []byte
	var err error
	if len(conf.args) == 0 {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = readAll(conf.args[0])
	}
	if err != nil {
		fatal("%s", err)
	}

	opt := encryptOptionsFrom(conf)
	var msg *openpgp.Message
	if len(conf.recipients) > 0 {
		var recipients []*packet.PublicKey
		for _, path := range conf.recipients {
			pub := loadPublicKey(path, conf.armor)
			recipients = append(recipients, pub.Primary)
			for _, sub := range pub.Subkeys {
				if sub.Public.Algorithm.CanEncrypt() {
					recipients = append(recipients, sub.Public)
				}
			}
		}
		msg, err = openpgp.EncryptPK(recipients, data, opt)
	} else {
		passphrase, perr := readPassphrase(conf)
		if perr != nil {
			fatal("%s", perr)
		}
		msg, err = openpgp.EncryptSymmetric(passphrase, data, opt)
	}
	if err != nil {
		fatal("%s", err)
	}

	var buf bytes.Buffer
	for _, p := range msg.Packets {
		if err := packet.Write(&buf, p, packet.WriteOptions{}); err != nil {
			fatal("%s", err)
		}
	}
	output := buf.Bytes()
	if conf.armor {
		var armored bytes.Buffer
		if err := openpgp.Encode(&armored, openpgp.BlockMessage, nil, output); err != nil {
			fatal("%s", err)
		}
		output = armored.Bytes()
	}
	writeOutput(conf, output)
}

func doDecrypt(conf *config) {
	var in io.Reader = os.Stdin
	if len(conf.args) > 0 {
		f, err := os.Open(conf.args[0])
		if err != nil {
			fatal("%s", err)
		}
		defer f.Close()
		in = f
	}

	if conf.armor {
		decoded, err := openpgp.Decode(in)
		if err != nil {
			fatal("%s", err)
		}
		in = bytes.NewReader(decoded.Data)
	}

	msg, err := openpgp.ParseMessage(in)
	if err != nil {
		fatal("%s", err)
	}

	opt := openpgp.DecryptOptions{}
	if conf.secretFile != "" {
		secret := loadSecretKey(conf)
		opt.Secrets = append(opt.Secrets, secret.Primary)
		for _, sub := range secret.Subkeys {
			if sub.Secret != nil {
				opt.Secrets = append(opt.Secrets, sub.Secret)
			}
		}
	} else {
		passphrase, perr := readPassphrase(conf)
		if perr != nil {
			fatal("%s", perr)
		}
		opt.Passphrase = passphrase
	}

	plaintext, warnings, err := openpgp.Decrypt(msg, opt)
	for _, w := range warnings {
		warnf("%s", w)
	}
	if err != nil {
		fatal("%s", err)
	}
	writeOutput(conf, plaintext)
}

func doSign(conf *config) {
	secret := loadSecretKey(conf)
	hashAlg := conf.hashAlg
	if hashAlg == 0 {
		hashAlg = 8 // SHA-256
	}
	signer, err := openpgp.NewSigningKey(secret.Primary, hashAlg)
	if err != nil {
		fatal("%s", err)
	}

	var data []byte
	if len(conf.args) == 0 {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = readAll(conf.args[0])
	}
	if err != nil {
		fatal("%s", err)
	}

	detached, err := openpgp.SignDetached(signer, data, uint32(conf.created))
	if err != nil {
		fatal("%s", err)
	}

	var buf bytes.Buffer
	if err := packet.Write(&buf, detached.Signature.Packet(), packet.WriteOptions{}); err != nil {
		fatal("%s", err)
	}
	output := buf.Bytes()
	if conf.armor {
		var armored bytes.Buffer
		if err := openpgp.Encode(&armored, openpgp.BlockSignature, nil, output); err != nil {
			fatal("%s", err)
		}
		output = armored.Bytes()
	}
	writeOutput(conf, output)
}

func doVerify(conf *config) {
	if len(conf.args) != 2 {
		fatal("--verify (-V) requires a signature file and a data file")
	}
	var pub *packet.PublicKey
	if conf.secretFile != "" {
		pub = loadPublicKey(conf.secretFile, conf.armor).Primary
	}

	sigBytes, err := readAll(conf.args[0])
	if err != nil {
		fatal("%s", err)
	}
	var sigReader io.Reader = bytes.NewReader(sigBytes)
	if conf.armor {
		decoded, err := openpgp.Decode(bytes.NewReader(sigBytes))
		if err != nil {
			fatal("%s", err)
		}
		sigReader = bytes.NewReader(decoded.Data)
	}
	detached, err := openpgp.ParseDetachedSignature(sigReader)
	if err != nil {
		fatal("%s", err)
	}

	data, err := readAll(conf.args[1])
	if err != nil {
		fatal("%s", err)
	}

	result, err := openpgp.Verify(detached.Signature, pub, openpgp.PreimageInput{Data: data})
	if err != nil && result != openpgp.VerifyInvalid {
		fatal("%s", err)
	}
	switch result {
	case openpgp.VerifyValid:
		fmt.Fprintln(os.Stderr, "good signature")
	case openpgp.VerifyInvalid:
		fatal("bad signature")
	default:
		fatal("signer unknown, cannot verify")
	}
}

func doClearsign(conf *config) {
	secret := loadSecretKey(conf)
	hashAlg := conf.hashAlg
	if hashAlg == 0 {
		hashAlg = 8 // SHA-256
	}
	signer, err := openpgp.NewSigningKey(secret.Primary, hashAlg)
	if err != nil {
		fatal("%s", err)
	}

	var text []byte
	if len(conf.args) == 0 {
		text, err = io.ReadAll(os.Stdin)
	} else {
		text, err = readAll(conf.args[0])
	}
	if err != nil {
		fatal("%s", err)
	}

	cs, err := openpgp.Clearsign(signer, text, uint32(conf.created))
	if err != nil {
		fatal("%s", err)
	}

	var buf bytes.Buffer
	if err := openpgp.EncodeCleartext(&buf, cs); err != nil {
		fatal("%s", err)
	}
	writeOutput(conf, buf.Bytes())
}

func isTerminal() bool {
	return terminal.IsTerminal(int(os.Stdin.Fd()))
}

func main() {
	conf := parse()

	switch conf.cmd {
	case cmdKeygen:
		doKeygen(conf)
	case cmdEncrypt:
		doEncrypt(conf)
	case cmdDecrypt:
		doDecrypt(conf)
	case cmdSign:
		doSign(conf)
	case cmdVerify:
		doVerify(conf)
	case cmdClearsign:
		doClearsign(conf)
	}
}
