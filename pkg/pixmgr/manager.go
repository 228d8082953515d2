// The pixstore manager handles configuration and wiring of the store
// backends. Most users will interact with the catalog through a manager,
// either from the command line or by embedding one in their own program.
package pixmgr

import (
	"context"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/pixstore/pixstore/pkg/dynamostore"
	"github.com/pixstore/pixstore/pkg/localstore"
	"github.com/pixstore/pixstore/pkg/pixstore"
	"github.com/pixstore/pixstore/pkg/s3store"
)

// provisioner is implemented by store backends that can create their own
// backing resource (bucket, table, directory).
type provisioner interface {
	Provision(ctx context.Context) error
}

type Manager struct {
	Service  *pixstore.Service
	Objects  pixstore.ObjectStore
	Metadata pixstore.MetadataStore
	Logger   logrus.FieldLogger
	Cfg      *viper.Viper
}

func NewManager(userCfg map[string]interface{}) (*Manager, error) {
	var err error
	mgr := &Manager{}

	if cfgPathRaw, ok := userCfg["config-file"]; ok {
		if cfgPath, ok := cfgPathRaw.(string); ok {
			err = mgr.initConfig(&cfgPath)
		} else {
			return nil, errors.New("option 'config-file' must be of type string")
		}
	} else {
		err = mgr.initConfig(nil)
	}
	if err != nil {
		return nil, err
	}

	if loggerRaw, ok := userCfg["logger"]; ok {
		if logger, ok := loggerRaw.(logrus.FieldLogger); ok {
			mgr.Logger = logger
		} else {
			return nil, errors.New("option 'logger' must satisfy logrus.FieldLogger")
		}
	} else {
		mgr.Logger = logrus.New()
	}

	if err = mgr.initStores(); err != nil {
		return nil, err
	}

	mgr.Service = pixstore.NewService(
		mgr.Objects,
		mgr.Metadata,
		mgr.Logger.WithField("module", "pixstore"),
		pixstore.Options{
			StoreTimeout: mgr.Cfg.GetDuration("store.timeout"),
			URLTTL:       mgr.Cfg.GetDuration("url.ttl"),
		})

	return mgr, nil
}

// Provision creates the backing resources (bucket and table, or the local
// object directory) for whichever provider is configured.
func (self *Manager) Provision(ctx context.Context) error {
	for _, store := range []interface{}{self.Objects, self.Metadata} {
		if p, ok := store.(provisioner); ok {
			if err := p.Provision(ctx); err != nil {
				return errors.Wrap(err, "Provisioning failed")
			}
		}
	}
	return nil
}

func (self *Manager) initConfig(cfgPath *string) error {
	// This is a private viper context just for pixstore (so as not to
	// conflict with the importer's usage).
	self.Cfg = viper.New()

	self.Cfg.SetDefault("provider", "local")
	self.Cfg.SetDefault("listen", ":8080")
	self.Cfg.SetDefault("store.timeout", 10*time.Second)
	self.Cfg.SetDefault("url.ttl", time.Hour)

	// Dumping ground for the local provider's objects. Users should be able
	// to "rm -rf build" and get a clean system.
	self.Cfg.SetDefault("local.dir", "./build/objects")

	// Order of precedence: ENV, pixstore.yaml, default
	self.Cfg.SetDefault("aws.region", "us-east-1")
	self.Cfg.BindEnv("aws.region", "AWS_DEFAULT_REGION")
	self.Cfg.SetDefault("aws.bucket", "pixstore-images")
	self.Cfg.SetDefault("aws.table", "pixstore-images")
	// Point this at localstack (e.g. http://localhost:4566) for development
	// against fake AWS.
	self.Cfg.SetDefault("aws.endpoint", "")
	self.Cfg.BindEnv("aws.endpoint", "PIXSTORE_AWS_ENDPOINT")
	self.Cfg.BindEnv("aws.accessKey", "AWS_ACCESS_KEY_ID")
	self.Cfg.BindEnv("aws.secretKey", "AWS_SECRET_ACCESS_KEY")

	if cfgPath != nil {
		// Use config file from the flag.
		self.Cfg.SetConfigFile(*cfgPath)
		if err := self.Cfg.ReadInConfig(); err != nil {
			return errors.Wrap(err, "Failed to load config")
		}
		return nil
	}

	// Default search path is ./configs/pixstore.* then ~/.pixstore/pixstore.*
	self.Cfg.AddConfigPath("./configs")
	if home, err := homedir.Dir(); err == nil {
		self.Cfg.AddConfigPath(home + "/.pixstore")
	}
	self.Cfg.SetConfigName("pixstore")

	// Defaults cover everything, so a missing config file is fine.
	if err := self.Cfg.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.Wrap(err, "Failed to load config")
		}
	}
	return nil
}

func (self *Manager) initStores() error {
	providerName := self.Cfg.GetString("provider")
	switch providerName {
	case "aws":
		objects, err := s3store.New(s3store.Config{
			Region:    self.Cfg.GetString("aws.region"),
			Bucket:    self.Cfg.GetString("aws.bucket"),
			Endpoint:  self.Cfg.GetString("aws.endpoint"),
			AccessKey: self.Cfg.GetString("aws.accessKey"),
			SecretKey: self.Cfg.GetString("aws.secretKey"),
		}, self.Logger.WithField("module", "objstore.s3"))
		if err != nil {
			return errors.Wrap(err, "Failed to initialize S3 object store")
		}

		metadata, err := dynamostore.New(dynamostore.Config{
			Region:    self.Cfg.GetString("aws.region"),
			Table:     self.Cfg.GetString("aws.table"),
			Endpoint:  self.Cfg.GetString("aws.endpoint"),
			AccessKey: self.Cfg.GetString("aws.accessKey"),
			SecretKey: self.Cfg.GetString("aws.secretKey"),
		}, self.Logger.WithField("module", "metastore.dynamo"))
		if err != nil {
			return errors.Wrap(err, "Failed to initialize DynamoDB metadata store")
		}

		self.Objects = objects
		self.Metadata = metadata
	case "local":
		self.Objects = localstore.NewDirStore(self.Cfg.GetString("local.dir"))
		self.Metadata = localstore.NewMemStore()
	default:
		return errors.New("Unrecognized provider: " + providerName)
	}
	return nil
}
